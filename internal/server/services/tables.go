package services

// columnKind decides how a JSON value is coerced before it is bound.
type columnKind int

const (
	kindText columnKind = iota
	kindUUID
	kindInt
	kindNumeric
	kindBool
	kindTime
)

type column struct {
	name     string
	kind     columnKind
	writable bool
	nullable bool
}

// table describes what a signed-in user may do with one table. Every read
// and write is confined to rows whose owner column equals the caller.
type table struct {
	name       string
	owner      string
	columns    []column
	insertable bool
	touch      bool
}

func (t *table) column(name string) (column, bool) {
	for _, c := range t.columns {
		if c.name == name {
			return c, true
		}
	}
	return column{}, false
}

func (t *table) columnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return names
}

var tables = map[string]*table{
	"profiles": {
		name:  "profiles",
		owner: "id",
		touch: true,
		columns: []column{
			{name: "id", kind: kindUUID},
			{name: "first_name", kind: kindText, writable: true, nullable: true},
			{name: "last_name", kind: kindText, writable: true, nullable: true},
			{name: "avatar_url", kind: kindText, writable: true, nullable: true},
			{name: "created_at", kind: kindTime},
			{name: "updated_at", kind: kindTime},
		},
	},
	"properties": {
		name:       "properties",
		owner:      "owner_id",
		insertable: true,
		touch:      true,
		columns: []column{
			{name: "id", kind: kindUUID},
			{name: "owner_id", kind: kindUUID},
			{name: "title", kind: kindText, writable: true},
			{name: "description", kind: kindText, writable: true, nullable: true},
			{name: "address", kind: kindText, writable: true, nullable: true},
			{name: "city", kind: kindText, writable: true, nullable: true},
			{name: "state", kind: kindText, writable: true, nullable: true},
			{name: "country", kind: kindText, writable: true, nullable: true},
			{name: "image_url", kind: kindText, writable: true, nullable: true},
			{name: "price_per_night", kind: kindNumeric, writable: true, nullable: true},
			{name: "max_guests", kind: kindInt, writable: true, nullable: true},
			{name: "created_at", kind: kindTime},
			{name: "updated_at", kind: kindTime},
		},
	},
	"bookings": {
		name:       "bookings",
		owner:      "guest_id",
		insertable: true,
		touch:      true,
		columns: []column{
			{name: "id", kind: kindUUID},
			{name: "property_id", kind: kindUUID, writable: true},
			{name: "guest_id", kind: kindUUID},
			{name: "start_date", kind: kindTime, writable: true},
			{name: "end_date", kind: kindTime, writable: true},
			{name: "total_price", kind: kindNumeric, writable: true},
			{name: "status", kind: kindText, writable: true},
			{name: "created_at", kind: kindTime},
			{name: "updated_at", kind: kindTime},
		},
	},
	"invitations": {
		name:       "invitations",
		owner:      "sender_id",
		insertable: true,
		touch:      true,
		columns: []column{
			{name: "id", kind: kindUUID},
			{name: "sender_id", kind: kindUUID},
			{name: "email", kind: kindText, writable: true},
			{name: "property_id", kind: kindUUID, writable: true, nullable: true},
			{name: "status", kind: kindText, writable: true},
			{name: "created_at", kind: kindTime},
			{name: "updated_at", kind: kindTime},
		},
	},
	"notifications": {
		name:       "notifications",
		owner:      "user_id",
		insertable: true,
		columns: []column{
			{name: "id", kind: kindUUID},
			{name: "user_id", kind: kindUUID},
			{name: "type", kind: kindText, writable: true},
			{name: "message", kind: kindText, writable: true},
			{name: "is_read", kind: kindBool, writable: true},
			{name: "related_id", kind: kindUUID, writable: true, nullable: true},
			{name: "created_at", kind: kindTime},
		},
	},
}
