// Package tenancy holds the tenant ownership registry and the effective tenant context
// every request is scoped by.
package tenancy

// Source is a foreign key a tenant can be inferred through: Table.id = <owned>.Column.
type Source struct {
	Column string
	Table  string
}

// OwnedTable is a table whose rows each belong to exactly one tenant.
type OwnedTable struct {
	Name string
	// Column holding the tenant reference.
	Column string
	// Label is the human readable column surfaced by record listings.
	Label string
	// Sources in fallback order.
	Sources []Source
}

const TenantColumn = "tenant_id"

// Parents are listed before children.
var ownedTables = []OwnedTable{
	{Name: "workspaces", Column: TenantColumn, Label: "name", Sources: []Source{
		{Column: "created_by", Table: "users"},
	}},
	{Name: "teams", Column: TenantColumn, Label: "name", Sources: []Source{
		{Column: "workspace_id", Table: "workspaces"},
		{Column: "created_by", Table: "users"},
	}},
	{Name: "clients", Column: TenantColumn, Label: "name", Sources: []Source{
		{Column: "workspace_id", Table: "workspaces"},
		{Column: "created_by", Table: "users"},
	}},
	{Name: "projects", Column: TenantColumn, Label: "name", Sources: []Source{
		{Column: "workspace_id", Table: "workspaces"},
		{Column: "client_id", Table: "clients"},
		{Column: "team_id", Table: "teams"},
	}},
	{Name: "tasks", Column: TenantColumn, Label: "title", Sources: []Source{
		{Column: "project_id", Table: "projects"},
		{Column: "created_by", Table: "users"},
	}},
	{Name: "time_entries", Column: TenantColumn, Label: "description", Sources: []Source{
		{Column: "task_id", Table: "tasks"},
		{Column: "user_id", Table: "users"},
	}},
	{Name: "comments", Column: TenantColumn, Label: "body", Sources: []Source{
		{Column: "task_id", Table: "tasks"},
		{Column: "author_id", Table: "users"},
	}},
	{Name: "attachments", Column: TenantColumn, Label: "file_name", Sources: []Source{
		{Column: "task_id", Table: "tasks"},
		{Column: "uploaded_by", Table: "users"},
	}},
	{Name: "tags", Column: TenantColumn, Label: "name", Sources: []Source{
		{Column: "workspace_id", Table: "workspaces"},
	}},
	{Name: "chat_channels", Column: TenantColumn, Label: "name", Sources: []Source{
		{Column: "workspace_id", Table: "workspaces"},
	}},
	{Name: "chat_messages", Column: TenantColumn, Label: "body", Sources: []Source{
		{Column: "channel_id", Table: "chat_channels"},
		{Column: "author_id", Table: "users"},
	}},
}

// users is platform-level: platform principals carry no tenant.
var platformTables = map[string]struct{}{
	"tenants":  {},
	"users":    {},
	"sessions": {},
}

// Registry answers which tables are tenant-owned.
type Registry struct {
	tables   []OwnedTable
	index    map[string]int
	platform map[string]struct{}
}

// NewRegistry builds a registry over the given tables. Use Default for the application registry.
func NewRegistry(tables []OwnedTable, platform []string) *Registry {
	r := &Registry{
		tables:   make([]OwnedTable, len(tables)),
		index:    make(map[string]int, len(tables)),
		platform: make(map[string]struct{}, len(platform)),
	}
	copy(r.tables, tables)
	for i, t := range r.tables {
		if t.Column == "" {
			r.tables[i].Column = TenantColumn
		}
		r.index[t.Name] = i
	}
	for _, name := range platform {
		r.platform[name] = struct{}{}
	}
	return r
}

var defaultRegistry = func() *Registry {
	platform := make([]string, 0, len(platformTables))
	for name := range platformTables {
		platform = append(platform, name)
	}
	return NewRegistry(ownedTables, platform)
}()

// Default is the registry shared by request scoping and the integrity tools.
func Default() *Registry {
	return defaultRegistry
}

// OwnedTables returns the owned tables, parents first.
func (r *Registry) OwnedTables() []OwnedTable {
	out := make([]OwnedTable, len(r.tables))
	copy(out, r.tables)
	return out
}

func (r *Registry) Owned(name string) (OwnedTable, bool) {
	i, ok := r.index[name]
	if !ok {
		return OwnedTable{}, false
	}
	return r.tables[i], true
}

func (r *Registry) IsOwned(name string) bool {
	_, ok := r.index[name]
	return ok
}

func (r *Registry) IsPlatform(name string) bool {
	_, ok := r.platform[name]
	return ok
}
