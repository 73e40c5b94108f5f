package vectorstore

// Metadata payload keys shared by all index backends.
const (
	keyUserID      = "user_id"
	keyNoteID      = "id"
	keyTitle       = "title"
	keyDescription = "description"
	keyCreatedAt   = "created_at"
	keyUpdatedAt   = "updated_at"
)

// Metadata is the denormalized note snapshot stored alongside each vector.
// It exists so queries can filter by owner and return displayable results
// without consulting the note store.
type Metadata struct {
	// UserID is the owning user. Stamped by the index from owner context;
	// this field is the sole access-control mechanism for retrieval.
	UserID string

	// Title is the note title at index time.
	Title string

	// Description is the note body at index time.
	Description string

	// CreatedAt and UpdatedAt are the note timestamps, RFC 3339.
	CreatedAt string
	UpdatedAt string
}

// Entry associates a note id with its embedding vector and metadata.
type Entry struct {
	// ID is the note's stable identifier.
	ID string

	// Vector is the note's embedding, already normalized to the index's
	// configured dimensionality.
	Vector []float32

	// Metadata is the filtering/display snapshot.
	Metadata Metadata
}

// Match is a single query result.
type Match struct {
	// ID is the note id of the matched entry.
	ID string

	// Score is the cosine similarity to the query vector, higher = closer.
	Score float32

	// Metadata is the entry's stored snapshot.
	Metadata Metadata
}

// toPayload flattens metadata into the string map stored by backends.
func (m Metadata) toPayload(noteID string) map[string]string {
	return map[string]string{
		keyNoteID:      noteID,
		keyUserID:      m.UserID,
		keyTitle:       m.Title,
		keyDescription: m.Description,
		keyCreatedAt:   m.CreatedAt,
		keyUpdatedAt:   m.UpdatedAt,
	}
}

// metadataFromPayload rebuilds metadata from a backend payload map.
func metadataFromPayload(payload map[string]string) Metadata {
	return Metadata{
		UserID:      payload[keyUserID],
		Title:       payload[keyTitle],
		Description: payload[keyDescription],
		CreatedAt:   payload[keyCreatedAt],
		UpdatedAt:   payload[keyUpdatedAt],
	}
}
