package tasklist

import (
	"time"

	"todosync/internal/service"
)

// Document field names. The owner field is stored as "userId".
const (
	FieldText      = "text"
	FieldCompleted = "completed"
	FieldOwner     = "userId"
	FieldCreatedAt = "createdAt"
)

// OwnerFilter restricts a query to documents owned by ownerID.
func OwnerFilter(ownerID string) service.Filter {
	return service.Filter{Field: FieldOwner, Value: ownerID}
}

// newTaskFields builds the document for a freshly created task.
func newTaskFields(ownerID, text string, now time.Time) map[string]any {
	return map[string]any{
		FieldText:      text,
		FieldCompleted: false,
		FieldOwner:     ownerID,
		FieldCreatedAt: now,
	}
}

// DecodeTask maps a document to a Task.
// Values are not re-validated: a missing or mistyped field decodes to its zero value.
func DecodeTask(doc service.Document) service.Task {
	t := service.Task{ID: doc.ID}
	t.Text, _ = doc.Fields[FieldText].(string)
	t.Completed, _ = doc.Fields[FieldCompleted].(bool)
	t.Owner, _ = doc.Fields[FieldOwner].(string)
	switch v := doc.Fields[FieldCreatedAt].(type) {
	case time.Time:
		t.CreatedAt = v
	case *time.Time:
		if v != nil {
			t.CreatedAt = *v
		}
	}
	return t
}
