package game

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/pixil98/go-realm/internal/protocol"
	"github.com/pixil98/go-realm/internal/storage"
	"github.com/pixil98/go-testutil"
)

func TestNewRoom_Populates(t *testing.T) {
	tr := newTestRoom(t)

	counts := map[string]int{}
	for _, m := range tr.world.Mobs() {
		k := tr.grid.ZoneAt(m.X, m.Y)
		counts[fmt.Sprintf("%s@%d,%d", m.Type, k.X, k.Y)]++
	}

	testutil.AssertEqual(t, "mob count", tr.world.MobCount(), 6)
	testutil.AssertEqual(t, "counts", counts["slime@0,0"], 3)
	testutil.AssertEqual(t, "counts", counts["wolf@1,0"], 2)
	testutil.AssertEqual(t, "counts", counts["goblin@-1,0"], 1)
}

func TestNewRoom_NothingSpawnable(t *testing.T) {
	mobs := &mockStore[*MobTemplate]{records: map[string]*MobTemplate{
		"orc": {Name: "Orc", Level: 1, Hp: 10, AttackSpeed: 1},
	}}
	catalog, err := NewCatalog(mobs, testClasses(), "orc")
	if err != nil {
		t.Fatalf("creating catalog: %v", err)
	}

	_, err = NewRoom("empty", catalog, testGrid(t), newMockPublisher(), newMockRepository(), &mockJobs{})
	testutil.AssertErrorContains(t, err, ErrEmptyCatalog.Error())
}

func TestRoom_Join(t *testing.T) {
	tr := newTestRoom(t)

	tr.join(t, "a", 1, 0, 0)
	tr.join(t, "b", 2, 3, 4)

	var init protocol.InitPayload
	tr.pub.last(t, "b", protocol.TypeInit, &init)
	testutil.AssertEqual(t, "id", init.Id, "b")
	testutil.AssertEqual(t, "players count", len(init.Players), 2)
	testutil.AssertEqual(t, "mobs count", len(init.Mobs), 6)

	var joined protocol.PlayerJoinedPayload
	tr.pub.last(t, "a", protocol.TypePlayerJoined, &joined)
	testutil.AssertEqual(t, "id", joined.Id, "b")
	testutil.AssertEqual(t, "name", joined.Name, "hero2")

	testutil.AssertEqual(t, "player joined messages", tr.pub.count("b", protocol.TypePlayerJoined), 0)

	p := tr.world.Player("b")
	testutil.AssertEqual(t, "hp", p.Hp, 150)
	testutil.AssertEqual(t, "max hp", p.MaxHp, 150)
	testutil.AssertEqual(t, "attack range", p.AttackRange, 60.0)
}

func TestRoom_JoinUnknownClass(t *testing.T) {
	tr := newTestRoom(t)

	err := tr.Room.join(context.Background(), testNow, &mockSession{id: "a"}, &storage.Character{
		Id:     1,
		UserId: 1,
		Class:  "bard",
	})

	testutil.AssertErrorContains(t, err, ErrUnknownClass.Error())
	testutil.AssertEqual(t, "player count", tr.world.PlayerCount(), 0)
	testutil.AssertEqual(t, "registry size", tr.registry.Len(), 0)
}

func TestRoom_JoinClampsPosition(t *testing.T) {
	tr := newTestRoom(t)

	tr.join(t, "a", 1, 500, math.NaN())

	p := tr.world.Player("a")
	testutil.AssertEqual(t, "x", p.X, 36.0)
	testutil.AssertEqual(t, "y", p.Y, 0.0)
}

func TestRoom_Supersede(t *testing.T) {
	tr := newTestRoom(t)
	tr.clearMobs()

	first := tr.join(t, "s1", 1, 0, 0)
	tr.join(t, "s2", 1, 0, 0)

	testutil.AssertEqual(t, "kicked messages", tr.pub.count("s1", protocol.TypeKicked), 1)
	testutil.AssertEqual(t, "player count", tr.world.PlayerCount(), 1)
	testutil.AssertEqual(t, "s1 removed", tr.world.Player("s1") == nil, true)

	tr.Tick(context.Background(), testNow.Add(199*time.Millisecond))
	_, closes := first.closed()
	testutil.AssertEqual(t, "closes", closes, 0)

	tr.Tick(context.Background(), testNow.Add(200*time.Millisecond))
	code, closes := first.closed()
	testutil.AssertEqual(t, "closes", closes, 1)
	testutil.AssertEqual(t, "code", code, protocol.CloseSuperseded)

	// The evicted session's own disconnect arrives late.
	tr.leave(context.Background(), "s1")

	owner, ok := tr.registry.Owner(1)
	testutil.AssertEqual(t, "owned", ok, true)
	testutil.AssertEqual(t, "owner", owner, "s2")
	testutil.AssertEqual(t, "s2 present", tr.world.Player("s2") != nil, true)
}

func TestRoom_Leave(t *testing.T) {
	tr := newTestRoom(t)

	tr.join(t, "a", 1, 0, 0)
	tr.join(t, "b", 2, 0, 0)
	tr.leave(context.Background(), "a")

	var left protocol.PlayerLeftPayload
	tr.pub.last(t, "b", protocol.TypePlayerLeft, &left)
	testutil.AssertEqual(t, "id", left.Id, "a")
	testutil.AssertEqual(t, "player count", tr.world.PlayerCount(), 1)
	testutil.AssertEqual(t, "registry size", tr.registry.Len(), 1)

	tr.jobs.run(t)
	_, saved := tr.repo.saved[10]
	testutil.AssertEqual(t, "saved", saved, true)
}

func TestRoom_Move(t *testing.T) {
	tests := map[string]struct {
		cmds []protocol.Command
		expX float64
		expY float64
	}{
		"single step": {
			cmds: []protocol.Command{protocol.MoveCommand{Vx: 10, Vy: -5}},
			expX: 1,
			expY: -0.5,
		},
		"steps accumulate": {
			cmds: []protocol.Command{
				protocol.MoveCommand{Vx: 10},
				protocol.MoveCommand{Vx: 10},
			},
			expX: 2,
		},
		"clamped at the edge": {
			cmds: []protocol.Command{protocol.MoveCommand{Vx: 10000, Vy: -10000}},
			expX: 36,
			expY: -36,
		},
		"non finite velocity": {
			cmds: []protocol.Command{protocol.MoveCommand{Vx: math.Inf(1), Vy: math.NaN()}},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			tr := newTestRoom(t)
			tr.join(t, "a", 1, 0, 0)

			tr.applyInput(context.Background(), testNow, "a", tt.cmds)

			p := tr.world.Player("a")
			testutil.AssertEqual(t, "x", math.Abs(p.X-tt.expX) < 1e-9, true)
			testutil.AssertEqual(t, "y", math.Abs(p.Y-tt.expY) < 1e-9, true)
		})
	}
}

func TestRoom_InputForUnknownSession(t *testing.T) {
	tr := newTestRoom(t)

	tr.applyInput(context.Background(), testNow, "ghost", []protocol.Command{
		protocol.MoveCommand{Vx: 1},
		protocol.AttackCommand{},
	})

	testutil.AssertEqual(t, "player count", tr.world.PlayerCount(), 0)
	testutil.AssertEqual(t, "mob count", tr.world.MobCount(), 6)
}

func TestRoom_AttackCooldown(t *testing.T) {
	tr := newTestRoom(t)
	tr.clearMobs()
	tr.join(t, "a", 1, 0, 0)
	m := tr.addMob(t, "m1", "wolf", 1, 0, func(m *Mob) {
		m.Hp, m.MaxHp = 100, 100
	})

	attack := []protocol.Command{protocol.AttackCommand{}}
	tr.applyInput(context.Background(), testNow, "a", attack)
	tr.applyInput(context.Background(), testNow.Add(500*time.Millisecond), "a", attack)
	testutil.AssertEqual(t, "hp", m.Hp, 85)

	tr.applyInput(context.Background(), testNow.Add(time.Second), "a", attack)
	testutil.AssertEqual(t, "hp", m.Hp, 70)
}

func TestRoom_AttackTargetsNearestInRange(t *testing.T) {
	tests := map[string]struct {
		mobs   map[string][2]float64
		expHit string
	}{
		"nearest wins": {
			mobs:   map[string][2]float64{"m1": {2, 0}, "m2": {1, 0}},
			expHit: "m2",
		},
		"tie goes to lowest id": {
			mobs:   map[string][2]float64{"m2": {0, 1}, "m1": {1, 0}},
			expHit: "m1",
		},
		"out of range": {
			mobs: map[string][2]float64{"m1": {3.5, 0}},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			tr := newTestRoom(t)
			tr.clearMobs()
			tr.join(t, "a", 1, 0, 0)
			for id, pos := range tt.mobs {
				tr.addMob(t, id, "wolf", pos[0], pos[1], nil)
			}

			tr.applyInput(context.Background(), testNow, "a", []protocol.Command{protocol.AttackCommand{}})

			for id := range tt.mobs {
				m := tr.world.Mob(id)
				testutil.AssertEqual(t, "damaged", m.Hp < m.MaxHp, id == tt.expHit)
			}
		})
	}
}

func TestRoom_KillMob(t *testing.T) {
	tr := newTestRoom(t)
	tr.clearMobs()
	tr.join(t, "a", 1, 14, 0)
	tr.join(t, "b", 2, 0, 0)
	tr.addMob(t, "m1", "wolf", 15, 0, func(m *Mob) {
		m.Hp = 1
		m.XpReward = 150
	})

	tr.applyInput(context.Background(), testNow, "a", []protocol.Command{protocol.AttackCommand{}})

	testutil.AssertEqual(t, "mob removed", tr.world.Mob("m1") == nil, true)
	testutil.AssertEqual(t, "pending events", tr.schedule.Len(), 1)

	var dead protocol.MobDeadPayload
	tr.pub.last(t, "b", protocol.TypeMobDead, &dead)
	testutil.AssertEqual(t, "id", dead.Id, "m1")
	testutil.AssertEqual(t, "type", dead.Type, "wolf")
	testutil.AssertEqual(t, "killer id", dead.KillerId, "a")

	var gained protocol.XpGainedPayload
	tr.pub.last(t, "a", protocol.TypeXpGained, &gained)
	testutil.AssertEqual(t, "amount", gained.Amount, 150)

	var levelUp protocol.PlayerLevelUpPayload
	tr.pub.last(t, "b", protocol.TypePlayerLevelUp, &levelUp)
	testutil.AssertEqual(t, "level", levelUp.Level, 2)
	testutil.AssertEqual(t, "max hp", levelUp.MaxHp, 170)

	p := tr.world.Player("a")
	testutil.AssertEqual(t, "level", p.Level, 2)
	testutil.AssertEqual(t, "xp", p.Xp, 50)
	testutil.AssertEqual(t, "hp", p.Hp, 170)
}

func TestRoom_Respawn(t *testing.T) {
	tr := newTestRoom(t)
	tr.clearMobs()
	tr.join(t, "a", 1, 14, 0)
	tr.addMob(t, "m1", "wolf", 15, 0, func(m *Mob) { m.Hp = 1 })

	tr.applyInput(context.Background(), testNow, "a", []protocol.Command{protocol.AttackCommand{}})

	tr.Tick(context.Background(), testNow.Add(29*time.Second))
	testutil.AssertEqual(t, "mob count", tr.world.MobCount(), 0)

	tr.Tick(context.Background(), testNow.Add(30*time.Second))
	testutil.AssertEqual(t, "mob count", tr.world.MobCount(), 1)

	m := tr.world.Mobs()[0]
	testutil.AssertEqual(t, "type", m.Type, "wolf")
	testutil.AssertEqual(t, "hp", m.Hp, m.MaxHp)
	testutil.AssertEqual(t, "zone at", tr.grid.ZoneAt(m.X, m.Y), ZoneKey{X: 1, Y: 0})
}

func TestRoom_RespawnInHomeZone(t *testing.T) {
	tr := newTestRoom(t)
	tr.clearMobs()
	tr.join(t, "a", 1, 9, 0)

	m := tr.spawner.SpawnAt(13, 0, testNow)
	if m == nil {
		t.Fatalf("expected a mob")
	}
	m.Hp = 1
	m.MoveSpeed = 400

	// The wolf chases across the border into the slime zone before dying.
	tr.runAI(context.Background(), testNow)
	testutil.AssertEqual(t, "death zone", tr.grid.ZoneAt(m.X, m.Y), ZoneKey{})

	tr.applyInput(context.Background(), testNow, "a", []protocol.Command{protocol.AttackCommand{}})
	testutil.AssertEqual(t, "mob count", tr.world.MobCount(), 0)

	tr.schedule.RunDue(testNow.Add(30 * time.Second))
	testutil.AssertEqual(t, "mob count", tr.world.MobCount(), 1)

	respawned := tr.world.Mobs()[0]
	testutil.AssertEqual(t, "type", respawned.Type, "wolf")
	testutil.AssertEqual(t, "home", respawned.Home, ZoneKey{X: 1, Y: 0})
	testutil.AssertEqual(t, "zone at", tr.grid.ZoneAt(respawned.X, respawned.Y), ZoneKey{X: 1, Y: 0})
}

func TestRoom_Loot(t *testing.T) {
	const kills = 100

	tests := map[string]struct {
		dropRate float64
		expDrops int
	}{
		"always drops": {
			dropRate: 1,
			expDrops: kills,
		},
		"never drops": {
			dropRate: 0,
			expDrops: 0,
		},
	}

	messages := map[int64]string{
		7: "Wolf dropped Rusty Sword (rare)",
		8: "Wolf dropped Wolf Pelt",
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			tr := newTestRoom(t)
			tr.clearMobs()
			tr.repo.items[7] = &storage.Item{Id: 7, Name: "Rusty Sword", Type: "weapon", Rarity: "Rare"}
			tr.repo.items[8] = &storage.Item{Id: 8, Name: "Wolf Pelt", Type: "material", Rarity: "common"}
			tr.join(t, "a", 1, 0, 0)

			for i := range kills {
				tr.addMob(t, fmt.Sprintf("m%03d", i), "wolf", 1, 0, func(m *Mob) {
					m.Hp = 1
					m.DropRate = tt.dropRate
					m.Drops = []int64{7, 8}
				})
				now := testNow.Add(time.Duration(i) * time.Second)
				tr.applyInput(context.Background(), now, "a", []protocol.Command{protocol.AttackCommand{}})
			}
			testutil.AssertEqual(t, "mob count", tr.world.MobCount(), 0)
			testutil.AssertEqual(t, "loot jobs", tr.jobs.count("loot"), tt.expDrops)

			tr.jobs.run(t)
			testutil.AssertEqual(t, "inventory size", len(tr.repo.inventory[10]), tt.expDrops)
			testutil.AssertEqual(t, "item dropped messages", tr.pub.count("a", protocol.TypeItemDropped), tt.expDrops)

			for _, item := range tr.repo.inventory[10] {
				_, listed := messages[item.Id]
				testutil.AssertEqual(t, "listed drop", listed, true)
			}

			if tt.expDrops > 0 {
				var drop protocol.ItemDroppedPayload
				tr.pub.last(t, "a", protocol.TypeItemDropped, &drop)
				testutil.AssertEqual(t, "mob type", drop.MobType, "wolf")
				testutil.AssertEqual(t, "message", drop.Message, messages[drop.Item.Id])
			}
		})
	}
}

func TestRoom_LootFollowsIdentity(t *testing.T) {
	tr := newTestRoom(t)
	tr.clearMobs()
	tr.repo.items[7] = &storage.Item{Id: 7, Name: "Rusty Sword", Rarity: "common"}
	tr.join(t, "s1", 1, 0, 0)
	tr.addMob(t, "m1", "wolf", 1, 0, func(m *Mob) {
		m.Hp = 1
		m.DropRate = 1
		m.Drops = []int64{7}
	})

	tr.applyInput(context.Background(), testNow, "s1", []protocol.Command{protocol.AttackCommand{}})
	tr.join(t, "s2", 1, 0, 0)
	tr.jobs.run(t)

	testutil.AssertEqual(t, "item dropped messages", tr.pub.count("s1", protocol.TypeItemDropped), 0)
	testutil.AssertEqual(t, "item dropped messages", tr.pub.count("s2", protocol.TypeItemDropped), 1)
}

func TestRoom_MobAttacks(t *testing.T) {
	tr := newTestRoom(t)
	tr.clearMobs()
	tr.join(t, "a", 1, 1, 0)
	tr.addMob(t, "m1", "wolf", 0, 0, func(m *Mob) { m.AttackPower = 25 })

	tr.runAI(context.Background(), testNow)
	tr.runAI(context.Background(), testNow.Add(100*time.Millisecond))

	var dmg protocol.PlayerDamagedPayload
	tr.pub.last(t, "a", protocol.TypePlayerDamaged, &dmg)
	testutil.AssertEqual(t, "source id", dmg.SourceId, "m1")
	testutil.AssertEqual(t, "damage", dmg.Damage, 15)
	testutil.AssertEqual(t, "hp", dmg.Hp, 135)
	testutil.AssertEqual(t, "player damaged messages", tr.pub.count("a", protocol.TypePlayerDamaged), 1)
}

func TestRoom_PlayerDeath(t *testing.T) {
	tr := newTestRoom(t)
	tr.clearMobs()
	tr.join(t, "a", 1, 1, 1)
	tr.world.Player("a").Xp = 55
	tr.addMob(t, "m1", "wolf", 0, 1, func(m *Mob) { m.AttackPower = 1000 })

	tr.runAI(context.Background(), testNow)

	var died protocol.PlayerDiedPayload
	tr.pub.last(t, "a", protocol.TypePlayerDied, &died)
	testutil.AssertEqual(t, "killer id", died.KillerId, "m1")
	testutil.AssertEqual(t, "xp lost", died.XpLost, 5)

	var dmg protocol.PlayerDamagedPayload
	tr.pub.last(t, "a", protocol.TypePlayerDamaged, &dmg)
	testutil.AssertEqual(t, "hp", dmg.Hp, 0)

	p := tr.world.Player("a")
	testutil.AssertEqual(t, "hp", p.Hp, p.MaxHp)
	testutil.AssertEqual(t, "xp", p.Xp, 50)
	testutil.AssertEqual(t, "x", p.X, 0.0)
	testutil.AssertEqual(t, "y", p.Y, 0.0)
}

func TestRoom_MobChases(t *testing.T) {
	tr := newTestRoom(t)
	tr.clearMobs()
	tr.join(t, "a", 1, 5, 0)
	m := tr.addMob(t, "m1", "wolf", 0, 0, nil)

	tr.runAI(context.Background(), testNow)

	testutil.AssertEqual(t, "x", math.Abs(m.X-0.1) < 1e-9, true)
	testutil.AssertEqual(t, "y", m.Y, 0.0)
}

func TestRoom_MobWanders(t *testing.T) {
	tr := newTestRoom(t)
	tr.clearMobs()
	tr.join(t, "a", 1, 30, 0)
	m := tr.addMob(t, "m1", "slime", 0, 0, nil)

	tr.runAI(context.Background(), testNow.Add(time.Second))
	testutil.AssertEqual(t, "x", m.X, 0.0)
	testutil.AssertEqual(t, "y", m.Y, 0.0)

	tr.runAI(context.Background(), testNow.Add(2*time.Second))
	testutil.AssertEqual(t, "last move", m.LastMove, testNow.Add(2*time.Second))
	testutil.AssertEqual(t, "x within jitter", math.Abs(m.X) <= DefaultIdleJitter, true)
	testutil.AssertEqual(t, "y within jitter", math.Abs(m.Y) <= DefaultIdleJitter, true)
}

func TestRoom_Dispose(t *testing.T) {
	tr := newTestRoom(t)
	tr.clearMobs()
	sess := tr.join(t, "a", 1, 0, 0)
	tr.spawner.ScheduleRespawn(ZoneKey{}, time.Minute, testNow)

	tr.Dispose(context.Background(), testNow)

	testutil.AssertEqual(t, "pending events", tr.schedule.Len(), 0)
	code, closes := sess.closed()
	testutil.AssertEqual(t, "closes", closes, 1)
	testutil.AssertEqual(t, "code", code, protocol.CloseGoingAway)

	tr.jobs.run(t)
	_, saved := tr.repo.saved[10]
	testutil.AssertEqual(t, "saved", saved, true)
}

func TestRoom_DisposeSavesNewestLast(t *testing.T) {
	tr := newTestRoom(t)
	tr.clearMobs()
	tr.join(t, "a", 1, 0, 0)
	p := tr.world.Player("a")

	p.Xp = 5
	tr.save(p)
	p.Xp = 40
	tr.Dispose(context.Background(), testNow)

	testutil.AssertEqual(t, "flush jobs", tr.jobs.count("flush character"), 1)
	tr.jobs.run(t)
	testutil.AssertEqual(t, "saved xp", tr.repo.saved[10].Xp, 40)
}

func TestRoom_CommandQueue(t *testing.T) {
	tr := newTestRoom(t, WithCommandQueue(1))
	noop := func(context.Context, time.Time) {}

	if err := tr.driver.Submit(context.Background(), noop); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The driver is not running, so a second op cannot fit.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := tr.driver.Submit(ctx, noop)
	testutil.AssertEqual(t, "deadline exceeded", errors.Is(err, context.DeadlineExceeded), true)
}

func TestRoom_Running(t *testing.T) {
	pub := newMockPublisher()
	room, err := NewRoom("live", testCatalog(t), testGrid(t), pub, newMockRepository(), &mockJobs{},
		WithTickLength(5*time.Millisecond))
	if err != nil {
		t.Fatalf("creating room: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = room.Start(ctx)
	}()

	sess := &mockSession{id: "a"}
	err = room.Join(context.Background(), sess, &storage.Character{Id: 1, UserId: 1, Name: "hero", Class: "warrior", Level: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st, err := room.Status(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "players", st.Players, 1)
	testutil.AssertEqual(t, "state", st.State, "running")
	testutil.AssertEqual(t, "init messages", pub.count("a", protocol.TypeInit), 1)

	cancel()
	wg.Wait()

	code, closes := sess.closed()
	testutil.AssertEqual(t, "closes", closes, 1)
	testutil.AssertEqual(t, "code", code, protocol.CloseGoingAway)

	err = room.Join(context.Background(), &mockSession{id: "b"}, &storage.Character{Id: 2, UserId: 2, Class: "warrior"})
	testutil.AssertEqual(t, "disposed", errors.Is(err, ErrRoomDisposed), true)
}
