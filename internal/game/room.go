package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/pixil98/go-realm/internal/display"
	"github.com/pixil98/go-realm/internal/driver"
	"github.com/pixil98/go-realm/internal/protocol"
	"github.com/pixil98/go-realm/internal/storage"
)

// Room is one independent instance of the simulation. All of its state is
// owned by the driver goroutine; the exported methods hand work to it.
type Room struct {
	id string

	catalog    *Catalog
	grid       *ZoneGrid
	world      *WorldState
	spawner    *SpawnDirector
	registry   *SessionRegistry
	schedule   *Schedule
	replicator *Replicator

	pub   Publisher
	chars CharacterRepository
	jobs  JobQueue

	sessions map[string]Session
	evicting map[string]Session

	driver     *driver.RoomDriver
	driverOpts []driver.RoomDriverOpt
	post       func(driver.Op)

	clock            func() time.Time
	rng              *rand.Rand
	newId            func() string
	quantum          time.Duration
	respawnDelay     time.Duration
	evictGrace       time.Duration
	awareness        float64
	idleInterval     time.Duration
	idleJitter       float64
	keyframeInterval int
}

// NewRoom builds a room and populates it. The room does not advance until
// Start is called.
func NewRoom(id string, catalog *Catalog, grid *ZoneGrid, pub Publisher, chars CharacterRepository, jobs JobQueue, opts ...RoomOpt) (*Room, error) {
	if catalog == nil {
		return nil, ErrEmptyCatalog
	}

	r := &Room{
		id:               id,
		catalog:          catalog,
		grid:             grid,
		world:            NewWorldState(),
		registry:         NewSessionRegistry(),
		schedule:         NewSchedule(),
		pub:              pub,
		chars:            chars,
		jobs:             jobs,
		sessions:         map[string]Session{},
		evicting:         map[string]Session{},
		clock:            time.Now,
		rng:              rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		newId:            uuid.NewString,
		quantum:          driver.DefaultTickLength,
		respawnDelay:     DefaultRespawnDelay,
		evictGrace:       DefaultEvictGrace,
		awareness:        DefaultAwarenessRadius,
		idleInterval:     DefaultIdleInterval,
		idleJitter:       DefaultIdleJitter,
		keyframeInterval: DefaultKeyframeInterval,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.replicator = NewReplicator(r.keyframeInterval)
	r.spawner = NewSpawnDirector(r.catalog, r.grid, r.world, r.schedule, r.rng, r.newId)
	r.driver = driver.NewRoomDriver(r, r.driverOpts...)
	r.post = func(op driver.Op) {
		if err := r.driver.Submit(context.Background(), op); err != nil {
			slog.Warn("posting to room", "room", r.id, "error", err)
		}
	}

	spawned := r.spawner.Populate(r.clock())
	if spawned == 0 {
		return nil, fmt.Errorf("populating room %s: %w", id, ErrEmptyCatalog)
	}
	slog.Info("room populated", "room", id, "mobs", spawned)

	return r, nil
}

func (r *Room) Id() string {
	return r.id
}

// Start advances the room until ctx is cancelled, then disposes it.
func (r *Room) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "room running", "room", r.id)
	err := r.driver.Start(ctx)
	if err != nil {
		return fmt.Errorf("running room %s: %w", r.id, err)
	}
	return nil
}

// Join admits a loaded character on sess. It returns once the player is
// visible in the world, or with an error that left nothing behind.
func (r *Room) Join(ctx context.Context, sess Session, char *storage.Character) error {
	var joinErr error
	err := r.driver.Call(ctx, func(ctx context.Context, now time.Time) {
		joinErr = r.join(ctx, now, sess, char)
	})
	if err != nil {
		return r.driverErr(err)
	}
	return joinErr
}

// Leave removes the session's player, if it still has one.
func (r *Room) Leave(ctx context.Context, sessionId string) error {
	return r.driverErr(r.driver.Submit(ctx, func(ctx context.Context, now time.Time) {
		r.leave(ctx, sessionId)
	}))
}

// HandleInput applies cmds for a session after anything it sent earlier.
func (r *Room) HandleInput(ctx context.Context, sessionId string, cmds []protocol.Command) error {
	if len(cmds) == 0 {
		return nil
	}
	return r.driverErr(r.driver.Submit(ctx, func(ctx context.Context, now time.Time) {
		r.applyInput(ctx, now, sessionId, cmds)
	}))
}

// Status is a point in time summary of a room.
type Status struct {
	Id            string `json:"id"`
	State         string `json:"state"`
	Players       int    `json:"players"`
	Mobs          int    `json:"mobs"`
	PendingEvents int    `json:"pending_events"`
}

func (r *Room) Status(ctx context.Context) (Status, error) {
	st := Status{Id: r.id, State: r.driver.State().String()}
	if r.driver.State() != driver.StateRunning {
		return st, nil
	}
	err := r.driver.Call(ctx, func(context.Context, time.Time) {
		st.Players = r.world.PlayerCount()
		st.Mobs = r.world.MobCount()
		st.PendingEvents = r.schedule.Len()
	})
	return st, r.driverErr(err)
}

func (r *Room) driverErr(err error) error {
	if errors.Is(err, driver.ErrDisposed) {
		return ErrRoomDisposed
	}
	return err
}

// Tick runs one simulation step.
func (r *Room) Tick(ctx context.Context, now time.Time) {
	r.schedule.RunDue(now)
	r.runAI(ctx, now)
	r.replicate(ctx)
}

// Dispose stops all timed work, saves every player and closes every session.
func (r *Room) Dispose(ctx context.Context, now time.Time) {
	r.schedule.Clear()

	for _, p := range r.world.Players() {
		r.flush(ctx, p)
	}

	reason := display.CloseReason(display.ShutdownNotice())
	for _, sess := range r.sessions {
		sess.Disconnect(protocol.CloseGoingAway, reason)
	}
	kicked := display.CloseReason(display.KickedNotice(""))
	for _, sess := range r.evicting {
		sess.Disconnect(protocol.CloseSuperseded, kicked)
	}

	r.sessions = map[string]Session{}
	r.evicting = map[string]Session{}
	r.world = NewWorldState()

	slog.InfoContext(ctx, "room disposed", "room", r.id)
}

func (r *Room) join(ctx context.Context, now time.Time, sess Session, char *storage.Character) error {
	class, ok := r.catalog.Class(char.Class)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownClass, char.Class)
	}

	sid := sess.Id()
	identity := Identity(char.UserId)

	if superseded, evict := r.registry.Admit(identity, sid); evict {
		r.evict(ctx, now, superseded)
	}

	p := r.newPlayer(sid, identity, char, class)
	r.world.AddPlayer(p)
	r.sessions[sid] = sess

	r.send(ctx, sid, protocol.TypeInit, protocol.InitPayload{
		Id:      sid,
		Players: playerViews(r.world.Players()),
		Mobs:    mobViews(r.world.Mobs()),
	})
	r.broadcast(ctx, protocol.TypePlayerJoined, protocol.PlayerJoinedPayload{
		Id:    sid,
		Name:  p.Name,
		Class: p.Class,
		Level: p.Level,
		X:     p.X,
		Y:     p.Y,
	}, sid)

	// The joiner's init may be ahead of the last broadcast baseline.
	r.replicator.ForceKeyframe()

	slog.InfoContext(ctx, "player joined", "room", r.id, "session", sid, "character", char.Id, "name", char.Name)
	return nil
}

func (r *Room) newPlayer(sid string, identity Identity, char *storage.Character, class *CharacterClass) *Player {
	p := &Player{
		SessionId:   sid,
		Identity:    identity,
		CharacterId: char.Id,
		Name:        char.Name,
		Class:       char.Class,
		Hp:          char.Hp,
		MaxHp:       char.MaxHp,
		AttackPower: char.AttackPower,
		Defense:     char.Defense,
		AttackRange: char.AttackRange,
		AttackSpeed: char.AttackSpeed,
		MoveSpeed:   char.MoveSpeed,
		Level:       max(1, char.Level),
		Xp:          max(0, char.Xp),
		class:       class,
	}

	if p.MaxHp <= 0 {
		p.MaxHp = class.BaseStats.Hp
	}
	if p.Hp <= 0 || p.Hp > p.MaxHp {
		p.Hp = p.MaxHp
	}
	if p.AttackRange <= 0 {
		p.AttackRange = class.BaseStats.AttackRange
	}
	if p.AttackSpeed <= 0 {
		p.AttackSpeed = class.BaseStats.AttackSpeed
	}
	if p.MoveSpeed <= 0 {
		p.MoveSpeed = class.BaseStats.MoveSpeed
	}

	p.X, p.Y = r.grid.Clamp(protocol.Finite(char.X), protocol.Finite(char.Y))
	return p
}

func (r *Room) leave(ctx context.Context, sid string) {
	delete(r.evicting, sid)

	p := r.world.Player(sid)
	if p == nil {
		return
	}
	r.registry.Release(p.Identity, sid)
	r.removePlayer(ctx, sid)

	slog.InfoContext(ctx, "player left", "room", r.id, "session", sid, "character", p.CharacterId)
}

// evict removes a superseded session's player at once and disconnects the
// session after the grace period.
func (r *Room) evict(ctx context.Context, now time.Time, sid string) {
	sess, ok := r.sessions[sid]
	if !ok {
		return
	}

	var name string
	if p := r.world.Player(sid); p != nil {
		name = p.Name
	}
	reason := display.KickedNotice(name)

	r.send(ctx, sid, protocol.TypeKicked, protocol.KickedPayload{Reason: reason})
	r.removePlayer(ctx, sid)

	r.evicting[sid] = sess
	r.schedule.At(now.Add(r.evictGrace), "evict", func(time.Time) {
		delete(r.evicting, sid)
		sess.Disconnect(protocol.CloseSuperseded, display.CloseReason(reason))
	})

	slog.InfoContext(ctx, "session superseded", "room", r.id, "session", sid)
}

func (r *Room) removePlayer(ctx context.Context, sid string) {
	p := r.world.RemovePlayer(sid)
	delete(r.sessions, sid)
	if p == nil {
		return
	}
	r.save(p)
	r.broadcast(ctx, protocol.TypePlayerLeft, protocol.PlayerLeftPayload{Id: sid}, "")
}

func (r *Room) replicate(ctx context.Context) {
	msgType, payload := r.replicator.Step(r.world)
	if msgType == "" {
		return
	}
	r.broadcast(ctx, msgType, payload, "")
}

// save queues a write of the player's current stats.
func (r *Room) save(p *Player) {
	id := p.CharacterId
	stats := p.Stats()
	_ = r.jobs.Enqueue("save character", func(ctx context.Context) error {
		return r.chars.UpsertCharacterStats(ctx, id, stats)
	})
}

// flush queues a final save behind any earlier saves for the character so
// the newest snapshot lands last. It writes directly only when the queue
// refuses the job.
func (r *Room) flush(ctx context.Context, p *Player) {
	id := p.CharacterId
	stats := p.Stats()
	job := func(ctx context.Context) error {
		return r.chars.UpsertCharacterStats(ctx, id, stats)
	}
	if err := r.jobs.Enqueue("flush character", job); err == nil {
		return
	}

	flushCtx, cancel := context.WithTimeout(ctx, DefaultFlushTimeout)
	defer cancel()
	if err := job(flushCtx); err != nil {
		slog.ErrorContext(ctx, "saving player on dispose", "room", r.id, "character", id, "error", err)
	}
}

func (r *Room) send(ctx context.Context, sid, msgType string, payload any) {
	data, err := protocol.Encode(msgType, payload)
	if err != nil {
		slog.ErrorContext(ctx, "encoding message", "room", r.id, "error", err)
		return
	}
	if err := r.pub.Publish(sid, data); err != nil {
		slog.WarnContext(ctx, "publishing message", "room", r.id, "session", sid, "type", msgType, "error", err)
	}
}

// broadcast sends to every session except exclude.
func (r *Room) broadcast(ctx context.Context, msgType string, payload any, exclude string) {
	data, err := protocol.Encode(msgType, payload)
	if err != nil {
		slog.ErrorContext(ctx, "encoding message", "room", r.id, "error", err)
		return
	}
	for sid := range r.sessions {
		if sid == exclude {
			continue
		}
		if err := r.pub.Publish(sid, data); err != nil {
			slog.WarnContext(ctx, "publishing message", "room", r.id, "session", sid, "type", msgType, "error", err)
		}
	}
}

func playerViews(ps []*Player) []protocol.PlayerView {
	out := make([]protocol.PlayerView, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.View())
	}
	return out
}

func mobViews(ms []*Mob) []protocol.MobView {
	out := make([]protocol.MobView, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.View())
	}
	return out
}
