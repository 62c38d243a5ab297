package app

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fertility/internal/cache"
	"fertility/internal/domain"
)

// RecordType selects the facet of a day targeted by DeleteRecord.
type RecordType string

// Deletable facets of a day record.
const (
	RecordTemperature RecordType = "temperature"
	RecordMenstrual   RecordType = "menstrual"
	RecordIntercourse RecordType = "intercourse"
	RecordSymptoms    RecordType = "symptoms"
)

// ErrUnknownRecordType indicates a DeleteRecord call naming an unrecognized
// facet.
var ErrUnknownRecordType = errors.New("unknown record type")

// DefaultCacheTTL is how long a cached read stays fresh.
const DefaultCacheTTL = 5 * time.Minute

// Cache keys are derived views over the store keys and expire independently.
const (
	cacheKeyDayPrefix   = "dayRecord_"
	cacheKeyRangePrefix = "dayRecordsRange_"
	cacheKeyCycles      = "cycles"
	cacheKeySettings    = "userSettings"
)

// DataManager orchestrates record-store reads and writes. It validates every
// record before it is applied, merges facets into the full day record in
// memory so a single atomic store write carries the result, and invalidates
// its cache before a save returns so the next read observes the write. Read
// misses fill the cache under the same lock as writes; a fill can never
// re-cache a value a completed save already invalidated.
//
// Construct one per store with NewDataManager; instances are safe for
// concurrent use and fully isolated, so tests create their own.
type DataManager struct {
	mu    sync.Mutex
	store domain.RecordStore
	cache *cache.Cache
}

// NewDataManager creates a DataManager over the given store. ttl <= 0 uses
// DefaultCacheTTL.
func NewDataManager(store domain.RecordStore, ttl time.Duration) *DataManager {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &DataManager{store: store, cache: cache.New(ttl)}
}

// SaveTemperatureRecord validates and stores the temperature facet for the
// record's date. A second save for the same date replaces the facet.
func (m *DataManager) SaveTemperatureRecord(ctx context.Context, r domain.TemperatureRecord) error {
	v := domain.NewValidationError()
	v.AddIf("date", domain.ValidateDate(r.Date))
	v.AddIf("time", domain.ValidateTime(r.Time))
	v.AddIf("temperature", domain.ValidateTemperature(r.Temperature))
	v.AddIf("note", domain.ValidateNote(r.Note))
	if err := v.Err(); err != nil {
		return err
	}

	return m.mutateDay(ctx, r.Date, func(d *domain.DayRecord) {
		rec := r
		d.Temperature = &rec
	})
}

// SaveMenstrualRecord validates and stores the menstrual facet, then runs
// the cycle-maintenance step when the record marks a cycle boundary. The
// record is persisted first; cycle recomputation is a separate pipeline
// stage so it can be retried without re-saving the record.
func (m *DataManager) SaveMenstrualRecord(ctx context.Context, r domain.MenstrualRecord) error {
	v := domain.NewValidationError()
	v.AddIf("date", domain.ValidateDate(r.Date))
	v.AddIf("flow", domain.ValidateMenstrualFlow(r.Flow))
	if r.IsStart && r.IsEnd {
		v.Add("isStart", "record cannot mark both the start and the end of a cycle")
	}
	if err := v.Err(); err != nil {
		return err
	}

	err := m.mutateDay(ctx, r.Date, func(d *domain.DayRecord) {
		rec := r
		d.Menstrual = &rec
	})
	if err != nil {
		return err
	}

	if r.IsStart || r.IsEnd {
		_, err = m.ApplyCycleEvent(ctx, r)
	}
	return err
}

// SaveIntercourseRecord validates and appends one intercourse event to the
// record's date, assigning an ID when the caller did not. It clears any
// explicit no-intercourse marker on that day.
func (m *DataManager) SaveIntercourseRecord(ctx context.Context, r domain.IntercourseRecord) error {
	v := domain.NewValidationError()
	v.AddIf("date", domain.ValidateDate(r.Date))
	v.AddIf("time", domain.ValidateTime(r.Time))
	v.AddIf("note", domain.ValidateNote(r.Note))
	if err := v.Err(); err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	return m.mutateDay(ctx, r.Date, func(d *domain.DayRecord) {
		d.NoIntercourse = false
		for i := range d.Intercourse {
			if d.Intercourse[i].ID == r.ID {
				d.Intercourse[i] = r
				return
			}
		}
		d.Intercourse = append(d.Intercourse, r)
	})
}

// SaveNoIntercourseRecord marks a day as explicitly intercourse-free,
// replacing any recorded events for that day.
func (m *DataManager) SaveNoIntercourseRecord(ctx context.Context, date string) error {
	v := domain.NewValidationError()
	v.AddIf("date", domain.ValidateDate(date))
	if err := v.Err(); err != nil {
		return err
	}

	return m.mutateDay(ctx, date, func(d *domain.DayRecord) {
		d.Intercourse = nil
		d.NoIntercourse = true
	})
}

// SaveSymptomRecord validates and stores the symptoms facet for the
// record's date.
func (m *DataManager) SaveSymptomRecord(ctx context.Context, r domain.SymptomRecord) error {
	v := domain.NewValidationError()
	v.AddIf("date", domain.ValidateDate(r.Date))
	v.AddIf("note", domain.ValidateNote(r.Note))
	if len(r.Symptoms) == 0 {
		v.Add("symptoms", "at least one symptom is required")
	}
	if err := v.Err(); err != nil {
		return err
	}

	return m.mutateDay(ctx, r.Date, func(d *domain.DayRecord) {
		rec := r
		d.Symptoms = &rec
	})
}

// GetDayRecord returns the record for a date, or nil when the date has
// none. Reads hit the cache first and fill it on a miss.
func (m *DataManager) GetDayRecord(ctx context.Context, date string) (*domain.DayRecord, error) {
	if err := domain.ValidateDate(date); err != nil {
		return nil, domain.FieldError("date", err)
	}

	if v, ok := m.cache.Get(cacheKeyDayPrefix + date); ok {
		rec := v.(domain.DayRecord)
		return &rec, nil
	}

	// Load and fill under the write lock. An unlocked fill racing a save
	// could re-cache the pre-write record after the save's invalidation,
	// leaving every later read stale for a full TTL.
	m.mu.Lock()
	defer m.mu.Unlock()

	records, err := m.loadDayRecords(ctx)
	if err != nil {
		return nil, err
	}
	rec, ok := records[date]
	if !ok {
		return nil, nil
	}
	m.cache.Set(cacheKeyDayPrefix+date, rec)
	return &rec, nil
}

// GetDayRecordsInRange returns the records between start and end inclusive,
// ordered by date. Dates without a record are absent from the result.
func (m *DataManager) GetDayRecordsInRange(ctx context.Context, start, end string) ([]domain.DayRecord, error) {
	v := domain.NewValidationError()
	v.AddIf("start", domain.ValidateDate(start))
	v.AddIf("end", domain.ValidateDate(end))
	if v.Empty() && start > end {
		v.Add("start", "start must not be after end")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	key := cacheKeyRangePrefix + start + "_" + end
	if v, ok := m.cache.Get(key); ok {
		cached := v.([]domain.DayRecord)
		out := make([]domain.DayRecord, len(cached))
		copy(out, cached)
		return out, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	records, err := m.loadDayRecords(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.DayRecord, 0)
	for date, rec := range records {
		if date >= start && date <= end {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })

	m.cache.Set(key, out)
	return out, nil
}

// DeleteRecord removes one facet of a day. Intercourse deletion targets a
// single event by recordID, or all events when recordID is empty. When the
// last facet goes, the whole date key is removed from the store rather than
// leaving an empty record behind. Deleting from a date with no record is
// not an error.
func (m *DataManager) DeleteRecord(ctx context.Context, date string, recordType RecordType, recordID string) error {
	if err := domain.ValidateDate(date); err != nil {
		return domain.FieldError("date", err)
	}
	switch recordType {
	case RecordTemperature, RecordMenstrual, RecordIntercourse, RecordSymptoms:
	default:
		return ErrUnknownRecordType
	}

	return m.mutateDay(ctx, date, func(d *domain.DayRecord) {
		switch recordType {
		case RecordTemperature:
			d.Temperature = nil
		case RecordMenstrual:
			d.Menstrual = nil
		case RecordIntercourse:
			if recordID == "" {
				d.Intercourse = nil
				d.NoIntercourse = false
				return
			}
			for i := range d.Intercourse {
				if d.Intercourse[i].ID == recordID {
					d.Intercourse = append(d.Intercourse[:i], d.Intercourse[i+1:]...)
					break
				}
			}
			if len(d.Intercourse) == 0 {
				d.Intercourse = nil
			}
		case RecordSymptoms:
			d.Symptoms = nil
		}
	})
}

// GetCycles returns the stored cycle list, oldest first.
func (m *DataManager) GetCycles(ctx context.Context) ([]domain.MenstrualCycle, error) {
	if v, ok := m.cache.Get(cacheKeyCycles); ok {
		cached := v.([]domain.MenstrualCycle)
		out := make([]domain.MenstrualCycle, len(cached))
		copy(out, cached)
		return out, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok, err := m.store.GetItem(ctx, domain.KeyCycles)
	if err != nil {
		return nil, err
	}
	var cycles []domain.MenstrualCycle
	if ok {
		if err := json.Unmarshal(raw, &cycles); err != nil {
			return nil, err
		}
	}
	m.cache.Set(cacheKeyCycles, cycles)
	return cycles, nil
}

// ApplyCycleEvent updates the cycle list for a saved boundary record.
//
// An isStart opens a new cycle and completes the previous open one, whose
// length is the distance between the two start dates. An isEnd closes the
// most recent open cycle; if a still-earlier cycle was also left open, it
// is completed using the newly closed cycle's start date as its boundary.
// Cycles older than those two are deliberately left untouched; the returned
// count of cycles still open lets callers surface that state instead of the
// engine guessing at boundaries it never observed.
func (m *DataManager) ApplyCycleEvent(ctx context.Context, r domain.MenstrualRecord) (openCycles int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok, err := m.store.GetItem(ctx, domain.KeyCycles)
	if err != nil {
		return 0, err
	}
	var cycles []domain.MenstrualCycle
	if ok {
		if err := json.Unmarshal(raw, &cycles); err != nil {
			return 0, err
		}
	}

	switch {
	case r.IsStart:
		cycles = applyCycleStart(cycles, r.Date)
	case r.IsEnd:
		cycles = applyCycleEnd(cycles, r.Date)
	default:
		return countOpen(cycles), nil
	}

	sort.Slice(cycles, func(i, j int) bool { return cycles[i].StartDate < cycles[j].StartDate })

	data, err := json.Marshal(cycles)
	if err != nil {
		return 0, err
	}
	if err := m.store.SetItem(ctx, domain.KeyCycles, data); err != nil {
		return 0, err
	}
	m.cache.Delete(cacheKeyCycles)
	return countOpen(cycles), nil
}

// GetUserSettings returns the stored settings, or the defaults when none
// were ever saved.
func (m *DataManager) GetUserSettings(ctx context.Context) (domain.UserSettings, error) {
	if v, ok := m.cache.Get(cacheKeySettings); ok {
		return v.(domain.UserSettings), nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok, err := m.store.GetItem(ctx, domain.KeyUserSettings)
	if err != nil {
		return domain.UserSettings{}, err
	}
	settings := domain.DefaultUserSettings()
	if ok {
		if err := json.Unmarshal(raw, &settings); err != nil {
			return domain.UserSettings{}, err
		}
	}
	m.cache.Set(cacheKeySettings, settings)
	return settings, nil
}

// SaveUserSettings validates and stores the personal parameters.
func (m *DataManager) SaveUserSettings(ctx context.Context, s domain.UserSettings) error {
	v := domain.NewValidationError()
	v.AddIf("settings", domain.ValidateUserSettings(s))
	if err := v.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := m.store.SetItem(ctx, domain.KeyUserSettings, data); err != nil {
		return err
	}
	m.cache.Delete(cacheKeySettings)
	return nil
}

// mutateDay applies fn to the day record for date under the write lock,
// merging on the full in-memory record so the store sees one atomic write.
// The per-date cache entry and every cached range covering the date are
// invalidated before returning.
func (m *DataManager) mutateDay(ctx context.Context, date string, fn func(*domain.DayRecord)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	records, err := m.loadDayRecords(ctx)
	if err != nil {
		return err
	}

	rec, existed := records[date]
	if !existed {
		rec = domain.DayRecord{Date: date}
	}
	fn(&rec)

	if rec.IsEmpty() {
		if !existed {
			return nil // nothing stored, nothing to remove
		}
		delete(records, date)
	} else {
		records[date] = rec
	}

	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	if err := m.store.SetItem(ctx, domain.KeyDayRecords, data); err != nil {
		return err
	}

	m.invalidateDay(date)
	return nil
}

func (m *DataManager) loadDayRecords(ctx context.Context) (map[string]domain.DayRecord, error) {
	raw, ok, err := m.store.GetItem(ctx, domain.KeyDayRecords)
	if err != nil {
		return nil, err
	}
	records := make(map[string]domain.DayRecord)
	if ok {
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// invalidateDay drops the per-date entry and any cached range that includes
// the date. ISO day strings order lexicographically, so the range bounds
// compare directly.
func (m *DataManager) invalidateDay(date string) {
	m.cache.Delete(cacheKeyDayPrefix + date)
	m.cache.DeleteFunc(func(key string) bool {
		rest, ok := strings.CutPrefix(key, cacheKeyRangePrefix)
		if !ok {
			return false
		}
		start, end, ok := strings.Cut(rest, "_")
		if !ok {
			return false
		}
		return date >= start && date <= end
	})
}

func applyCycleStart(cycles []domain.MenstrualCycle, date string) []domain.MenstrualCycle {
	for _, c := range cycles {
		if c.StartDate == date {
			return cycles // boundary already recorded
		}
	}

	if i := lastOpenIndex(cycles, len(cycles)-1); i >= 0 && cycles[i].StartDate < date {
		cycles[i].EndDate = domain.AddDays(date, -1)
		cycles[i].Length = domain.DaysBetween(cycles[i].StartDate, date)
		cycles[i].IsComplete = true
	}
	return append(cycles, domain.MenstrualCycle{StartDate: date})
}

func applyCycleEnd(cycles []domain.MenstrualCycle, date string) []domain.MenstrualCycle {
	i := lastOpenIndex(cycles, len(cycles)-1)
	if i < 0 || cycles[i].StartDate > date {
		return cycles
	}
	cycles[i].EndDate = date
	cycles[i].Length = domain.DaysBetween(cycles[i].StartDate, date) + 1
	cycles[i].IsComplete = true

	// A still-earlier open cycle is completed against the newly closed
	// cycle's start. Anything older stays open; the engine never observed
	// its boundary.
	if j := lastOpenIndex(cycles, i-1); j >= 0 {
		cycles[j].EndDate = domain.AddDays(cycles[i].StartDate, -1)
		cycles[j].Length = domain.DaysBetween(cycles[j].StartDate, cycles[i].StartDate)
		cycles[j].IsComplete = true
	}
	return cycles
}

func lastOpenIndex(cycles []domain.MenstrualCycle, from int) int {
	for i := from; i >= 0; i-- {
		if !cycles[i].IsComplete {
			return i
		}
	}
	return -1
}

func countOpen(cycles []domain.MenstrualCycle) int {
	n := 0
	for _, c := range cycles {
		if !c.IsComplete {
			n++
		}
	}
	return n
}
