package game

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/pixil98/go-realm/internal/driver"
	"github.com/pixil98/go-realm/internal/storage"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type mockStore[T storage.ValidatingSpec] struct {
	records map[string]T
}

func (m *mockStore[T]) Get(id string) T {
	return m.records[id]
}

func (m *mockStore[T]) GetAll() map[string]T {
	return m.records
}

func testClasses() *mockStore[*CharacterClass] {
	return &mockStore[*CharacterClass]{records: map[string]*CharacterClass{
		"warrior": {
			Name: "Warrior",
			BaseStats: ClassStats{
				Hp:          150,
				AttackPower: 15,
				Defense:     10,
				AttackRange: 60,
				AttackSpeed: 1.0,
				MoveSpeed:   180,
			},
			HpPerLevel:      20,
			AttackPerLevel:  3,
			DefensePerLevel: 2,
		},
	}}
}

func testMobs() *mockStore[*MobTemplate] {
	tmpl := func(name string, hp int) *MobTemplate {
		return &MobTemplate{
			Name:        name,
			Level:       1,
			Hp:          hp,
			AttackPower: 5,
			Defense:     0,
			XpReward:    10,
			AttackRange: 40,
			AttackSpeed: 1.0,
			MoveSpeed:   20,
		}
	}
	return &mockStore[*MobTemplate]{records: map[string]*MobTemplate{
		"slime":  tmpl("Slime", 30),
		"wolf":   tmpl("Wolf", 50),
		"goblin": tmpl("Goblin", 40),
	}}
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(testMobs(), testClasses(), "slime")
	if err != nil {
		t.Fatalf("creating catalog: %v", err)
	}
	return c
}

type publishedMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type mockPublisher struct {
	mu   sync.Mutex
	sent map[string][]publishedMessage
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{sent: map[string][]publishedMessage{}}
}

func (m *mockPublisher) Publish(sessionId string, data []byte) error {
	var msg publishedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent[sessionId] = append(m.sent[sessionId], msg)
	return nil
}

func (m *mockPublisher) count(sessionId, msgType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msg := range m.sent[sessionId] {
		if msg.Type == msgType {
			n++
		}
	}
	return n
}

// last decodes the payload of the latest msgType message sent to sessionId.
func (m *mockPublisher) last(t *testing.T, sessionId, msgType string, into any) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.sent[sessionId]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type != msgType {
			continue
		}
		if err := json.Unmarshal(msgs[i].Payload, into); err != nil {
			t.Fatalf("decoding %s: %v", msgType, err)
		}
		return
	}
	t.Fatalf("no %s message sent to %s", msgType, sessionId)
}

type mockRepository struct {
	mu        sync.Mutex
	saved     map[int64]storage.CharacterStats
	items     map[int64]*storage.Item
	inventory map[int64][]*storage.Item
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		saved:     map[int64]storage.CharacterStats{},
		items:     map[int64]*storage.Item{},
		inventory: map[int64][]*storage.Item{},
	}
}

func (m *mockRepository) UpsertCharacterStats(_ context.Context, id int64, stats storage.CharacterStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[id] = stats
	return nil
}

func (m *mockRepository) LookupItem(_ context.Context, id int64) (*storage.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("item %d: %w", id, storage.ErrItemNotFound)
	}
	return item, nil
}

func (m *mockRepository) AppendInventoryItem(_ context.Context, characterId int64, item *storage.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inventory[characterId] = append(m.inventory[characterId], item)
	return nil
}

type namedJob struct {
	name string
	job  storage.Job
}

type mockJobs struct {
	mu   sync.Mutex
	jobs []namedJob
}

func (m *mockJobs) Enqueue(name string, job storage.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, namedJob{name: name, job: job})
	return nil
}

func (m *mockJobs) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, j := range m.jobs {
		if j.name == name {
			n++
		}
	}
	return n
}

// run executes and clears every queued job.
func (m *mockJobs) run(t *testing.T) {
	t.Helper()
	m.mu.Lock()
	jobs := m.jobs
	m.jobs = nil
	m.mu.Unlock()

	for _, j := range jobs {
		if err := j.job(context.Background()); err != nil {
			t.Fatalf("running %s job: %v", j.name, err)
		}
	}
}

type mockSession struct {
	id string

	mu     sync.Mutex
	code   int
	reason string
	closes int
}

func (m *mockSession) Id() string {
	return m.id
}

func (m *mockSession) Disconnect(code int, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.code = code
	m.reason = reason
	m.closes++
}

func (m *mockSession) closed() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.code, m.closes
}

type testRoom struct {
	*Room
	pub  *mockPublisher
	repo *mockRepository
	jobs *mockJobs
}

// newTestRoom builds a room on a fixed clock and seed. Work posted back to
// the room runs inline at testNow.
func newTestRoom(t *testing.T, opts ...RoomOpt) *testRoom {
	t.Helper()

	seq := 0
	base := []RoomOpt{
		WithClock(func() time.Time { return testNow }),
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithIdGenerator(func() string {
			seq++
			return fmt.Sprintf("mob-%03d", seq)
		}),
	}

	tr := &testRoom{
		pub:  newMockPublisher(),
		repo: newMockRepository(),
		jobs: &mockJobs{},
	}
	r, err := NewRoom("test", testCatalog(t), testGrid(t), tr.pub, tr.repo, tr.jobs, append(base, opts...)...)
	if err != nil {
		t.Fatalf("creating room: %v", err)
	}
	r.post = func(op driver.Op) {
		op(context.Background(), testNow)
	}
	tr.Room = r
	return tr
}

// clearMobs empties the world so a test can place its own mobs.
func (tr *testRoom) clearMobs() {
	for _, m := range tr.world.Mobs() {
		tr.world.RemoveMob(m.Id)
	}
}

func (tr *testRoom) addMob(t *testing.T, id, mobType string, x, y float64, edit func(*Mob)) *Mob {
	t.Helper()
	tmpl, ok := tr.catalog.Mob(mobType)
	if !ok {
		t.Fatalf("unknown mob type %s", mobType)
	}
	m := newMob(id, mobType, tmpl, x, y, testNow)
	m.Home = tr.grid.ZoneAt(x, y)
	if edit != nil {
		edit(m)
	}
	tr.world.AddMob(m)
	return m
}

func (tr *testRoom) join(t *testing.T, sid string, userId int64, x, y float64) *mockSession {
	t.Helper()
	sess := &mockSession{id: sid}
	char := &storage.Character{
		Id:          userId * 10,
		UserId:      userId,
		Name:        fmt.Sprintf("hero%d", userId),
		Class:       "warrior",
		Level:       1,
		AttackPower: 15,
		Defense:     10,
		X:           x,
		Y:           y,
	}
	if err := tr.Room.join(context.Background(), testNow, sess, char); err != nil {
		t.Fatalf("joining %s: %v", sid, err)
	}
	return sess
}
