package workspace

// tree is the id-indexed representation of one project's contents.
// Nodes live in flat maps and containment is an ordered list of child
// ids plus a parent index, so structural edits are index updates and
// deleting a node needs no a-priori knowledge of its depth. The nested
// Project/Folder view handed to readers is materialized from this
// index on demand.
type tree struct {
	rootTables  []string
	rootFolders []string
	tables      map[string]*tableNode
	folders     map[string]*folderNode
}

type tableNode struct {
	Table
	parent string // owning folder id, "" for the project root
}

type folderNode struct {
	Folder        // child slices unused here; children live in the index
	parent  string
	tables  []string
	folders []string
}

func newTree() *tree {
	return &tree{
		tables:  make(map[string]*tableNode),
		folders: make(map[string]*folderNode),
	}
}

// addTable appends t to the folder with the given id, or to the project
// root when folderID is empty. Returns false when the target folder
// does not exist; the tree is unchanged in that case.
func (t *tree) addTable(folderID string, tbl Table) bool {
	if folderID == "" {
		t.tables[tbl.ID] = &tableNode{Table: tbl}
		t.rootTables = append(t.rootTables, tbl.ID)
		return true
	}
	parent, ok := t.folders[folderID]
	if !ok {
		return false
	}
	t.tables[tbl.ID] = &tableNode{Table: tbl, parent: folderID}
	parent.tables = append(parent.tables, tbl.ID)
	return true
}

// addFolder appends f under parentID (empty for the project root).
func (t *tree) addFolder(parentID string, f Folder) bool {
	if parentID == "" {
		t.folders[f.ID] = &folderNode{Folder: f}
		t.rootFolders = append(t.rootFolders, f.ID)
		return true
	}
	parent, ok := t.folders[parentID]
	if !ok {
		return false
	}
	t.folders[f.ID] = &folderNode{Folder: f, parent: parentID}
	parent.folders = append(parent.folders, f.ID)
	return true
}

// removeTable deletes the table with the given id wherever it lives.
// Sibling order is preserved. No-op when the id is absent.
func (t *tree) removeTable(id string) bool {
	node, ok := t.tables[id]
	if !ok {
		return false
	}
	if node.parent == "" {
		t.rootTables = removeID(t.rootTables, id)
	} else if parent, ok := t.folders[node.parent]; ok {
		parent.tables = removeID(parent.tables, id)
	}
	delete(t.tables, id)
	return true
}

// removeFolder deletes the folder with the given id and its entire
// subtree atomically, at whatever depth it is found.
func (t *tree) removeFolder(id string) bool {
	node, ok := t.folders[id]
	if !ok {
		return false
	}
	if node.parent == "" {
		t.rootFolders = removeID(t.rootFolders, id)
	} else if parent, ok := t.folders[node.parent]; ok {
		parent.folders = removeID(parent.folders, id)
	}
	t.deleteSubtree(id)
	return true
}

func (t *tree) deleteSubtree(folderID string) {
	node, ok := t.folders[folderID]
	if !ok {
		return
	}
	for _, tableID := range node.tables {
		delete(t.tables, tableID)
	}
	for _, childID := range node.folders {
		t.deleteSubtree(childID)
	}
	delete(t.folders, folderID)
}

// updateTable replaces the table's value through fn. No-op on a
// missing id.
func (t *tree) updateTable(id string, fn func(*Table)) bool {
	node, ok := t.tables[id]
	if !ok {
		return false
	}
	fn(&node.Table)
	return true
}

func (t *tree) updateFolder(id string, fn func(*Folder)) bool {
	node, ok := t.folders[id]
	if !ok {
		return false
	}
	fn(&node.Folder)
	return true
}

func (t *tree) table(id string) (Table, bool) {
	node, ok := t.tables[id]
	if !ok {
		return Table{}, false
	}
	return node.Table, true
}

// materialize builds the nested root table and folder sequences in
// stored order.
func (t *tree) materialize() ([]Table, []Folder) {
	return t.materializeTables(t.rootTables), t.materializeFolders(t.rootFolders)
}

func (t *tree) materializeTables(ids []string) []Table {
	tables := make([]Table, 0, len(ids))
	for _, id := range ids {
		if node, ok := t.tables[id]; ok {
			tables = append(tables, node.Table)
		}
	}
	return tables
}

func (t *tree) materializeFolders(ids []string) []Folder {
	folders := make([]Folder, 0, len(ids))
	for _, id := range ids {
		node, ok := t.folders[id]
		if !ok {
			continue
		}
		f := node.Folder
		f.Tables = t.materializeTables(node.tables)
		f.Folders = t.materializeFolders(node.folders)
		folders = append(folders, f)
	}
	return folders
}

func removeID(ids []string, id string) []string {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
