// Package placement keeps the client side of classroom placement: the class
// buckets, the unassigned pool and the moves made between them before they
// are saved in one finalize call.
package placement

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/noah-isme/step-lms-api/internal/models"
)

// Unassigned is the source/target id of the unassigned pool.
const Unassigned = models.UnassignedBucketID

var (
	ErrStudentNotFound = errors.New("student not found in source")
	ErrBucketNotFound  = errors.New("bucket not found")
	ErrBucketFull      = errors.New("bucket is at capacity")
)

// Source is the API surface a Session loads from and saves to. *Client
// implements it.
type Source interface {
	ClassesWithStudents(ctx context.Context) ([]models.ClassBucket, error)
	UnassignedStudents(ctx context.Context) ([]models.Student, error)
	Finalize(ctx context.Context, placements []models.PlacementItem) (*models.PlacementResult, error)
}

// Student is a student card inside a bucket or the pool.
type Student struct {
	ID        string
	Name      string
	Grade     *float64
	GPA       *float64
	Temporary bool
}

// Bucket is a class with its current roster.
type Bucket struct {
	ID          string
	ClassName   string
	RoomNumber  string
	TeacherName string
	Capacity    int
	Students    []Student
}

// Options tune a Session.
type Options struct {
	DefaultCapacity int
	TempIDPrefix    string
}

type move struct {
	seq       uint64
	studentID string
	target    string
}

// Session holds the loaded snapshot, the pending moves and the view derived
// from both. Pending moves are replayed on every fresh snapshot, so a reload
// does not lose unsaved work. Safe for concurrent use.
type Session struct {
	src  Source
	opts Options

	mu            sync.Mutex
	baseBuckets   []Bucket
	basePool      []Student
	buckets       []Bucket
	pool          []Student
	pending       []move
	seq           uint64
	bucketGen     uint64
	poolGen       uint64
	bucketsLoaded bool
	poolLoaded    bool

	// tempIDs maps an id-less student's name and email to the id it was
	// given, so pending moves survive a reload that reorders the pool.
	tempIDs map[string]string
	tempSeq int
}

// NewSession builds an empty Session over src.
func NewSession(src Source, opts Options) *Session {
	if opts.DefaultCapacity <= 0 {
		opts.DefaultCapacity = models.DefaultClassCapacity
	}
	if opts.TempIDPrefix == "" {
		opts.TempIDPrefix = "temp-"
	}
	return &Session{src: src, opts: opts, tempIDs: make(map[string]string)}
}

// Load fetches both views.
func (s *Session) Load(ctx context.Context) error {
	if err := s.LoadBuckets(ctx); err != nil {
		return err
	}
	return s.LoadUnassigned(ctx)
}

// LoadBuckets replaces the bucket snapshot. A response that arrives after a
// newer LoadBuckets call started is dropped.
func (s *Session) LoadBuckets(ctx context.Context) error {
	s.mu.Lock()
	s.bucketGen++
	gen := s.bucketGen
	s.mu.Unlock()

	remote, err := s.src.ClassesWithStudents(ctx)
	if err != nil {
		return fmt.Errorf("load buckets: %w", err)
	}

	buckets := make([]Bucket, len(remote))
	for i, b := range remote {
		students := make([]Student, len(b.Students))
		for j, st := range b.Students {
			students[j] = Student{ID: st.ID, Name: st.Name, Grade: st.Grade, GPA: st.GPA}
		}
		capacity := b.Capacity
		if capacity <= 0 {
			capacity = s.opts.DefaultCapacity
		}
		buckets[i] = Bucket{
			ID:          b.ID,
			ClassName:   b.ClassName,
			RoomNumber:  b.RoomNumber,
			TeacherName: b.TeacherName,
			Capacity:    capacity,
			Students:    students,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.bucketGen {
		return nil
	}
	s.baseBuckets = buckets
	s.bucketsLoaded = true
	s.rebuild()
	return nil
}

// LoadUnassigned replaces the pool snapshot. Students delivered without an
// id get a client-only id made of the temp prefix and a session counter. The
// same name and email keep the same id across reloads.
func (s *Session) LoadUnassigned(ctx context.Context) error {
	s.mu.Lock()
	s.poolGen++
	gen := s.poolGen
	s.mu.Unlock()

	remote, err := s.src.UnassignedStudents(ctx)
	if err != nil {
		return fmt.Errorf("load unassigned: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.poolGen {
		return nil
	}

	pool := make([]Student, len(remote))
	seen := make(map[string]int)
	for i, st := range remote {
		pool[i] = Student{ID: st.ID, Name: st.Name}
		if st.ID == "" {
			pool[i].ID = s.tempID(st, seen)
			pool[i].Temporary = true
		}
	}
	s.basePool = pool
	s.poolLoaded = true
	s.rebuild()
	return nil
}

// MoveStudent moves a student from sourceID (a bucket id or Unassigned) to
// targetID. Moving onto the same bucket does nothing. A full target rejects
// the move and leaves state untouched.
func (s *Session) MoveStudent(studentID, sourceID, targetID string) error {
	if sourceID == targetID {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.apply(studentID, sourceID, targetID, true); err != nil {
		return err
	}
	s.record(studentID, targetID)
	return nil
}

// RemoveStudent returns a placed student to the unassigned pool.
func (s *Session) RemoveStudent(bucketID, studentID string) error {
	return s.MoveStudent(studentID, bucketID, Unassigned)
}

// Placements lists one pair per student currently in any bucket, plus one
// pair per student taken out of a bucket and left in the pool. The latter
// carries the generic grade of the class it left ("Grade 10-A" becomes
// "Grade 10"), which the server treats as unassigned.
func (s *Session) Placements() []models.PlacementItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placementsLocked()
}

// Finalize saves every placement in one call. On success the moves it
// carried are dropped and both views are reloaded; on failure state is kept
// and the error returned.
func (s *Session) Finalize(ctx context.Context) (*models.PlacementResult, error) {
	s.mu.Lock()
	items := s.placementsLocked()
	submitted := s.seq
	s.mu.Unlock()

	result, err := s.src.Finalize(ctx, items)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	kept := s.pending[:0]
	for _, m := range s.pending {
		if m.seq > submitted {
			kept = append(kept, m)
		}
	}
	s.pending = kept
	s.mu.Unlock()

	if err := s.Load(ctx); err != nil {
		return result, err
	}
	return result, nil
}

// Dirty reports whether there are moves not yet saved.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) > 0
}

// Buckets returns a copy of the current buckets.
func (s *Session) Buckets() []Bucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneBuckets(s.buckets)
}

// Bucket returns a copy of one bucket.
func (s *Session) Bucket(id string) (Bucket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.buckets {
		if b.ID == id {
			return cloneBuckets([]Bucket{b})[0], true
		}
	}
	return Bucket{}, false
}

// Pool returns a copy of the unassigned pool.
func (s *Session) Pool() []Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Student(nil), s.pool...)
}

func (s *Session) placementsLocked() []models.PlacementItem {
	items := make([]models.PlacementItem, 0)
	for _, b := range s.buckets {
		for _, st := range b.Students {
			items = append(items, models.PlacementItem{StudentID: st.ID, ClassName: b.ClassName})
		}
	}
	for _, m := range s.pending {
		if m.target != Unassigned || indexOf(s.pool, m.studentID) < 0 {
			continue
		}
		for _, b := range s.baseBuckets {
			if indexOf(b.Students, m.studentID) >= 0 {
				items = append(items, models.PlacementItem{StudentID: m.studentID, ClassName: models.GenericGradeLabel(b.ClassName)})
				break
			}
		}
	}
	return items
}

// tempID returns the client-only id for an id-less student. seen counts
// repeated name and email pairs within one load.
func (s *Session) tempID(st models.Student, seen map[string]int) string {
	key := st.Name + "\x00" + st.Email
	seen[key]++
	key = fmt.Sprintf("%s\x00%d", key, seen[key])
	if id, ok := s.tempIDs[key]; ok {
		return id
	}
	id := fmt.Sprintf("%s%d", s.opts.TempIDPrefix, s.tempSeq)
	s.tempSeq++
	s.tempIDs[key] = id
	return id
}

func (s *Session) record(studentID, target string) {
	s.seq++
	for i, m := range s.pending {
		if m.studentID == studentID {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			break
		}
	}
	s.pending = append(s.pending, move{seq: s.seq, studentID: studentID, target: target})
}

// rebuild derives the view from the snapshots and replays pending moves.
// Replayed moves skip the capacity check: the server may have filled a class
// since the move was made and the user still has to see their edit. Moves
// whose student or target vanished are dropped.
func (s *Session) rebuild() {
	s.buckets = cloneBuckets(s.baseBuckets)

	placed := make(map[string]struct{})
	for _, b := range s.buckets {
		for _, st := range b.Students {
			placed[st.ID] = struct{}{}
		}
	}
	s.pool = make([]Student, 0, len(s.basePool))
	for _, st := range s.basePool {
		if _, ok := placed[st.ID]; !ok {
			s.pool = append(s.pool, st)
		}
	}

	if !s.bucketsLoaded || !s.poolLoaded {
		return
	}
	kept := s.pending[:0]
	for _, m := range s.pending {
		source, ok := s.locate(m.studentID)
		if !ok {
			continue
		}
		if source == m.target {
			kept = append(kept, m)
			continue
		}
		if err := s.apply(m.studentID, source, m.target, false); err != nil {
			continue
		}
		kept = append(kept, m)
	}
	s.pending = kept
}

func (s *Session) locate(studentID string) (string, bool) {
	for _, b := range s.buckets {
		if indexOf(b.Students, studentID) >= 0 {
			return b.ID, true
		}
	}
	if indexOf(s.pool, studentID) >= 0 {
		return Unassigned, true
	}
	return "", false
}

func (s *Session) apply(studentID, sourceID, targetID string, enforceCapacity bool) error {
	var target *[]Student
	targetCapacity := 0
	if targetID == Unassigned {
		target = &s.pool
	} else {
		b := s.bucketByID(targetID)
		if b == nil {
			return fmt.Errorf("%w: %s", ErrBucketNotFound, targetID)
		}
		target = &b.Students
		targetCapacity = b.Capacity
	}

	var source *[]Student
	if sourceID == Unassigned {
		source = &s.pool
	} else {
		b := s.bucketByID(sourceID)
		if b == nil {
			return fmt.Errorf("%w: %s", ErrBucketNotFound, sourceID)
		}
		source = &b.Students
	}

	idx := indexOf(*source, studentID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrStudentNotFound, studentID)
	}
	already := indexOf(*target, studentID) >= 0
	if enforceCapacity && targetCapacity > 0 && !already && len(*target) >= targetCapacity {
		return fmt.Errorf("%w: %s", ErrBucketFull, targetID)
	}

	student := (*source)[idx]
	*source = append((*source)[:idx:idx], (*source)[idx+1:]...)
	if !already {
		*target = append(*target, student)
	}
	return nil
}

func (s *Session) bucketByID(id string) *Bucket {
	for i := range s.buckets {
		if s.buckets[i].ID == id {
			return &s.buckets[i]
		}
	}
	return nil
}

func indexOf(students []Student, id string) int {
	for i, st := range students {
		if st.ID == id {
			return i
		}
	}
	return -1
}

func cloneBuckets(in []Bucket) []Bucket {
	out := make([]Bucket, len(in))
	for i, b := range in {
		out[i] = b
		out[i].Students = append([]Student(nil), b.Students...)
	}
	return out
}
