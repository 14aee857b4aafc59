package models

import "strings"

// BulkOperationMode controls how bulk writes behave on errors.
type BulkOperationMode string

const (
	BulkModeAtomic         BulkOperationMode = "atomic"
	BulkModePartialOnError BulkOperationMode = "partialOnError"
)

// Valid reports whether m is a supported mode.
func (m BulkOperationMode) Valid() bool {
	return m == BulkModeAtomic || m == BulkModePartialOnError
}

// UnassignedBucketID is the pseudo bucket id of the unassigned pool.
const UnassignedBucketID = "unassigned"

// IsUnassignedLabel reports whether an enrolled_class value counts as
// unassigned: nil, empty, or lacking a section hyphen ("Grade 10").
func IsUnassignedLabel(label *string) bool {
	if label == nil {
		return true
	}
	return *label == "" || !strings.Contains(*label, "-")
}

// GenericGradeLabel strips the section from a class name: "Grade 10-A" becomes "Grade 10".
func GenericGradeLabel(className string) string {
	if idx := strings.Index(className, "-"); idx >= 0 {
		return strings.TrimSpace(className[:idx])
	}
	return strings.TrimSpace(className)
}

// PlacementItem assigns one student to one class label. A generic grade or
// empty label returns the student to the unassigned pool.
type PlacementItem struct {
	StudentID string `json:"studentId" validate:"required"`
	ClassName string `json:"className"`
}

// PlacementFailure reports an item that could not be applied.
type PlacementFailure struct {
	StudentID string `json:"studentId"`
	ClassName string `json:"className"`
	Reason    string `json:"reason"`
}

// PlacementResult summarises a finalize batch.
type PlacementResult struct {
	Mode    BulkOperationMode  `json:"mode"`
	Applied int                `json:"applied"`
	Skipped []string           `json:"skipped"`
	Failed  []PlacementFailure `json:"failed"`
}

// BucketStudent is a student as shown inside a class bucket.
type BucketStudent struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Grade *float64 `json:"grade"`
	GPA   *float64 `json:"gpa"`
}

// ClassBucket is a class with its current roster.
type ClassBucket struct {
	ID          string          `json:"id"`
	ClassName   string          `json:"class_name"`
	RoomNumber  string          `json:"room_number"`
	TeacherName string          `json:"teacher_name"`
	Capacity    int             `json:"capacity"`
	Students    []BucketStudent `json:"students"`
}

// ClassStudentRow is one row of the classes x students left join.
type ClassStudentRow struct {
	ClassID      string   `db:"class_id"`
	ClassName    string   `db:"class_name"`
	RoomNumber   string   `db:"room_number"`
	Capacity     *int     `db:"capacity"`
	TeacherName  *string  `db:"teacher_name"`
	StudentID    *string  `db:"student_id"`
	StudentName  *string  `db:"student_name"`
	StudentGrade *float64 `db:"student_grade"`
	StudentGPA   *float64 `db:"student_gpa"`
}

// UnassignedTeacherName labels buckets without a homeroom teacher.
const UnassignedTeacherName = "Unassigned"

// FoldClassRows groups flat join rows into buckets in first-seen order. A
// class without students yields an empty roster and a student repeated by
// join fan-out is listed once.
func FoldClassRows(rows []ClassStudentRow, defaultCapacity int) []ClassBucket {
	buckets := make([]ClassBucket, 0)
	index := make(map[string]int)
	seen := make(map[string]map[string]struct{})

	for _, row := range rows {
		pos, ok := index[row.ClassID]
		if !ok {
			teacher := UnassignedTeacherName
			if row.TeacherName != nil && *row.TeacherName != "" {
				teacher = *row.TeacherName
			}
			buckets = append(buckets, ClassBucket{
				ID:          row.ClassID,
				ClassName:   row.ClassName,
				RoomNumber:  row.RoomNumber,
				TeacherName: teacher,
				Capacity:    EffectiveCapacity(row.Capacity, defaultCapacity),
				Students:    []BucketStudent{},
			})
			pos = len(buckets) - 1
			index[row.ClassID] = pos
			seen[row.ClassID] = make(map[string]struct{})
		}

		if row.StudentID == nil || *row.StudentID == "" {
			continue
		}
		if _, dup := seen[row.ClassID][*row.StudentID]; dup {
			continue
		}
		seen[row.ClassID][*row.StudentID] = struct{}{}

		name := ""
		if row.StudentName != nil {
			name = *row.StudentName
		}
		buckets[pos].Students = append(buckets[pos].Students, BucketStudent{
			ID:    *row.StudentID,
			Name:  name,
			Grade: row.StudentGrade,
			GPA:   row.StudentGPA,
		})
	}
	return buckets
}
