package changes

import (
	"sort"

	"github.com/google/uuid"

	"github.com/wippyai/cilmeta/tables"
)

// AssemblyChanges groups every pending edit of one modification session.
type AssemblyChanges struct {
	Strings     *HeapChanges[string]
	Blobs       *HeapChanges[[]byte]
	GUIDs       *HeapChanges[uuid.UUID]
	UserStrings *HeapChanges[string]

	tables map[tables.TableID]*TableModifications
}

// NewAssemblyChanges creates an empty session over the given heap records.
func NewAssemblyChanges(strings *HeapChanges[string], blobs *HeapChanges[[]byte], guids *HeapChanges[uuid.UUID], userStrings *HeapChanges[string]) *AssemblyChanges {
	return &AssemblyChanges{
		Strings:     strings,
		Blobs:       blobs,
		GUIDs:       guids,
		UserStrings: userStrings,
		tables:      make(map[tables.TableID]*TableModifications),
	}
}

// Clone returns a deep copy of the session log.
func (c *AssemblyChanges) Clone() *AssemblyChanges {
	out := NewAssemblyChanges(c.Strings.Clone(), c.Blobs.Clone(), c.GUIDs.Clone(), c.UserStrings.Clone())
	for id, m := range c.tables {
		out.tables[id] = m.Clone()
	}
	return out
}

// Table returns the modifications of table, or nil.
func (c *AssemblyChanges) Table(table tables.TableID) *TableModifications {
	return c.tables[table]
}

// TableFor returns the modifications of table, creating a sparse log over
// originalCount rows on first use.
func (c *AssemblyChanges) TableFor(table tables.TableID, originalCount uint32) *TableModifications {
	m, ok := c.tables[table]
	if !ok {
		m = NewSparse(table, originalCount)
		c.tables[table] = m
	}
	return m
}

// ReplaceTable installs a replaced table.
func (c *AssemblyChanges) ReplaceTable(table tables.TableID, rows []tables.Row) *TableModifications {
	m := NewReplaced(table, rows)
	c.tables[table] = m
	return m
}

// ModifiedTables lists tables with pending edits in table order.
func (c *AssemblyChanges) ModifiedTables() []tables.TableID {
	var ids []tables.TableID
	for id, m := range c.tables {
		if m.HasModifications() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// HasTableChanges reports whether any table has pending edits.
func (c *AssemblyChanges) HasTableChanges() bool {
	for _, m := range c.tables {
		if m.HasModifications() {
			return true
		}
	}
	return false
}

// HasChanges reports whether anything at all is pending.
func (c *AssemblyChanges) HasChanges() bool {
	return c.HasTableChanges() ||
		c.Strings.HasChanges() ||
		c.Blobs.HasChanges() ||
		c.GUIDs.HasChanges() ||
		c.UserStrings.HasChanges()
}
