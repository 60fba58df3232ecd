package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"staff-roster/internal/model"
	"staff-roster/internal/repository"
	pkgerrors "staff-roster/pkg/errors"
)

// ── Mock RosterRepository ──
//
// GetByID 返回副本而非内部指针，模拟真实行读取；
// Update 比对 version 字段，模拟乐观锁行为。

type mockRosterRepo struct {
	rosters map[string]*model.Roster
}

func newMockRosterRepo() *mockRosterRepo {
	return &mockRosterRepo{rosters: make(map[string]*model.Roster)}
}

func (m *mockRosterRepo) Create(_ context.Context, roster *model.Roster) error {
	if roster.RosterID == "" {
		roster.RosterID = fmt.Sprintf("roster-%d", len(m.rosters)+1)
	}
	if roster.Version == 0 {
		roster.Version = 1
	}
	clone := *roster
	m.rosters[roster.RosterID] = &clone
	return nil
}

func (m *mockRosterRepo) GetByID(_ context.Context, id string) (*model.Roster, error) {
	if r, ok := m.rosters[id]; ok {
		clone := *r
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRosterRepo) ListByVenue(_ context.Context, venueID string, offset, limit int) ([]model.Roster, int64, error) {
	var all []model.Roster
	for _, r := range m.rosters {
		if r.VenueID == venueID {
			all = append(all, *r)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].StartDate != all[j].StartDate {
			return all[i].StartDate > all[j].StartDate
		}
		return all[i].VersionNumber > all[j].VersionNumber
	})
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockRosterRepo) ListByChain(_ context.Context, chainID string) ([]model.Roster, error) {
	var result []model.Roster
	for _, r := range m.rosters {
		if r.ChainID != nil && *r.ChainID == chainID {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].VersionNumber < result[j].VersionNumber })
	return result, nil
}

func (m *mockRosterRepo) ListActiveByChain(_ context.Context, chainID string) ([]model.Roster, error) {
	var result []model.Roster
	for _, r := range m.rosters {
		if r.ChainID != nil && *r.ChainID == chainID && r.IsActive {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].VersionNumber < result[j].VersionNumber })
	return result, nil
}

func (m *mockRosterRepo) MaxVersionNumber(_ context.Context, chainID string) (int, error) {
	max := 0
	for _, r := range m.rosters {
		if r.ChainID != nil && *r.ChainID == chainID && r.VersionNumber > max {
			max = r.VersionNumber
		}
	}
	return max, nil
}

func (m *mockRosterRepo) Update(_ context.Context, roster *model.Roster) error {
	stored, ok := m.rosters[roster.RosterID]
	if !ok || stored.Version != roster.Version {
		return pkgerrors.ErrOptimisticLock
	}
	roster.Version++
	clone := *roster
	m.rosters[roster.RosterID] = &clone
	return nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	shifts map[string]*model.Shift
	nextID int
}

func newMockShiftRepo() *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[string]*model.Shift)}
}

func (m *mockShiftRepo) BatchCreate(_ context.Context, shifts []model.Shift) error {
	for i := range shifts {
		if shifts[i].ShiftID == "" {
			m.nextID++
			shifts[i].ShiftID = fmt.Sprintf("shift-%d", m.nextID)
		}
		clone := shifts[i]
		m.shifts[clone.ShiftID] = &clone
	}
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	if s, ok := m.shifts[id]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) ListByRoster(_ context.Context, rosterID string) ([]model.Shift, error) {
	var result []model.Shift
	for _, s := range m.shifts {
		if s.RosterID == rosterID {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		if result[i].StartTime != result[j].StartTime {
			return result[i].StartTime < result[j].StartTime
		}
		return result[i].ShiftID < result[j].ShiftID
	})
	return result, nil
}

func (m *mockShiftRepo) Update(_ context.Context, shift *model.Shift) error {
	if _, ok := m.shifts[shift.ShiftID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *shift
	m.shifts[shift.ShiftID] = &clone
	return nil
}

func (m *mockShiftRepo) Delete(_ context.Context, id string) error {
	delete(m.shifts, id)
	return nil
}

func (m *mockShiftRepo) DeleteByRoster(_ context.Context, rosterID string) error {
	for id, s := range m.shifts {
		if s.RosterID == rosterID {
			delete(m.shifts, id)
		}
	}
	return nil
}

func (m *mockShiftRepo) ReplaceForRoster(ctx context.Context, rosterID string, shifts []model.Shift) error {
	if err := m.DeleteByRoster(ctx, rosterID); err != nil {
		return err
	}
	return m.BatchCreate(ctx, shifts)
}

func (m *mockShiftRepo) UpdateConflictFlags(_ context.Context, shifts []model.Shift) error {
	for i := range shifts {
		if stored, ok := m.shifts[shifts[i].ShiftID]; ok {
			stored.HasConflict = shifts[i].HasConflict
			stored.ConflictType = shifts[i].ConflictType
		}
	}
	return nil
}

// ── Mock VersionHistoryRepository ──

type mockHistoryRepo struct {
	entries []model.VersionHistoryEntry
}

func newMockHistoryRepo() *mockHistoryRepo {
	return &mockHistoryRepo{}
}

func (m *mockHistoryRepo) Create(_ context.Context, entry *model.VersionHistoryEntry) error {
	if entry.EntryID == "" {
		entry.EntryID = fmt.Sprintf("entry-%d", len(m.entries)+1)
	}
	if entry.PerformedAt.IsZero() {
		// 保证写入顺序即时间顺序
		entry.PerformedAt = time.Unix(int64(len(m.entries)), 0)
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockHistoryRepo) ListByRoster(_ context.Context, rosterID string, offset, limit int) ([]model.VersionHistoryEntry, int64, error) {
	var all []model.VersionHistoryEntry
	for _, e := range m.entries {
		if e.RosterID == rosterID {
			all = append(all, e)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].PerformedAt.After(all[j].PerformedAt) })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// actionsFor 按写入顺序返回某排班表的历史动作（测试断言用）
func (m *mockHistoryRepo) actionsFor(rosterID string) []model.HistoryAction {
	var actions []model.HistoryAction
	for _, e := range m.entries {
		if e.RosterID == rosterID {
			actions = append(actions, e.Action)
		}
	}
	return actions
}

// ── Mock ShiftSnapshotRepository ──

type mockSnapshotRepo struct {
	snapshots map[string]*model.ShiftSnapshot
}

func newMockSnapshotRepo() *mockSnapshotRepo {
	return &mockSnapshotRepo{snapshots: make(map[string]*model.ShiftSnapshot)}
}

func snapshotKey(rosterID string, revision int) string {
	return fmt.Sprintf("%s:%d", rosterID, revision)
}

func (m *mockSnapshotRepo) Create(_ context.Context, snapshot *model.ShiftSnapshot) error {
	key := snapshotKey(snapshot.RosterID, snapshot.Revision)
	if _, exists := m.snapshots[key]; exists {
		return fmt.Errorf("duplicate snapshot %s", key)
	}
	clone := *snapshot
	clone.Shifts = append(model.ShiftList(nil), snapshot.Shifts...)
	m.snapshots[key] = &clone
	return nil
}

func (m *mockSnapshotRepo) GetByRevision(_ context.Context, rosterID string, revision int) (*model.ShiftSnapshot, error) {
	if s, ok := m.snapshots[snapshotKey(rosterID, revision)]; ok {
		clone := *s
		clone.Shifts = append(model.ShiftList(nil), s.Shifts...)
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSnapshotRepo) ListByRoster(_ context.Context, rosterID string) ([]model.ShiftSnapshot, error) {
	var result []model.ShiftSnapshot
	for _, s := range m.snapshots {
		if s.RosterID == rosterID {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Revision < result[j].Revision })
	return result, nil
}

// ── Mock TimeOffRepository ──

type mockTimeOffRepo struct {
	timeOffs []model.TimeOff
}

func newMockTimeOffRepo() *mockTimeOffRepo {
	return &mockTimeOffRepo{}
}

func (m *mockTimeOffRepo) Create(_ context.Context, timeOff *model.TimeOff) error {
	m.timeOffs = append(m.timeOffs, *timeOff)
	return nil
}

func (m *mockTimeOffRepo) ListApprovedByUsers(_ context.Context, userIDs []string, startDate, endDate string) ([]model.TimeOff, error) {
	idSet := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		idSet[id] = true
	}
	var result []model.TimeOff
	for _, t := range m.timeOffs {
		if idSet[t.UserID] && t.Status == model.TimeOffApproved &&
			t.StartDate <= endDate && t.EndDate >= startDate {
			result = append(result, t)
		}
	}
	return result, nil
}

// ── Mock AvailabilityRepository ──

type mockAvailabilityRepo struct {
	availabilities []model.Availability
}

func newMockAvailabilityRepo() *mockAvailabilityRepo {
	return &mockAvailabilityRepo{}
}

func (m *mockAvailabilityRepo) Create(_ context.Context, availability *model.Availability) error {
	m.availabilities = append(m.availabilities, *availability)
	return nil
}

func (m *mockAvailabilityRepo) ListByUsers(_ context.Context, userIDs []string) ([]model.Availability, error) {
	idSet := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		idSet[id] = true
	}
	var result []model.Availability
	for _, a := range m.availabilities {
		if idSet[a.UserID] {
			result = append(result, a)
		}
	}
	return result, nil
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

// ── 测试用聚合 ──

// testRepos 聚合所有 mock repo 便于 seed 数据
type testRepos struct {
	roster       *mockRosterRepo
	shift        *mockShiftRepo
	history      *mockHistoryRepo
	snapshot     *mockSnapshotRepo
	timeOff      *mockTimeOffRepo
	availability *mockAvailabilityRepo
	user         *mockUserRepo
}

func newTestRepos() *testRepos {
	return &testRepos{
		roster:       newMockRosterRepo(),
		shift:        newMockShiftRepo(),
		history:      newMockHistoryRepo(),
		snapshot:     newMockSnapshotRepo(),
		timeOff:      newMockTimeOffRepo(),
		availability: newMockAvailabilityRepo(),
		user:         newMockUserRepo(),
	}
}

func (r *testRepos) toRepository() *repository.Repository {
	// db 为 nil：Transaction 直接执行回调，不经过真实事务
	return &repository.Repository{
		Roster:       r.roster,
		Shift:        r.shift,
		History:      r.history,
		Snapshot:     r.snapshot,
		TimeOff:      r.timeOff,
		Availability: r.availability,
		User:         r.user,
	}
}

// ── 共用构造 ──

func strp(s string) *string { return &s }

// mkShift 构造测试班次（user 为空串表示未分配）
func mkShift(id, rosterID, user, date, start, end string) model.Shift {
	s := model.Shift{
		ShiftID:   id,
		RosterID:  rosterID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
	}
	if user != "" {
		s.UserID = strp(user)
	}
	return s
}
