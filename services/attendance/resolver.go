package attendance

// Directory snapshots passed into the resolver. References are interface{}
// because upstream data mixes bare ids, names and wrapper objects; the
// resolver normalizes at its boundary so the draft and submitter layers only
// ever see canonical strings.

// ClassInfo is a read-only snapshot of one class and its sections.
type ClassInfo struct {
	ID       string
	Name     string
	Sections []SectionInfo
}

// SectionInfo describes a section within a class. Staff holds the assigned
// staff reference in whatever shape the directory stored it.
type SectionInfo struct {
	ID    string
	Name  string
	Staff interface{}
}

// StudentInfo is a read-only snapshot of one student. Class and Section may be
// ids in any shape; SectionName is the denormalized label transitional rows
// carry instead of a section id.
type StudentInfo struct {
	ID          string
	FullName    string
	Class       interface{}
	Section     interface{}
	SectionName string
}

// RosterEntry is one resolved student.
type RosterEntry struct {
	StudentID   string
	StudentName string
}

// Roster is the resolved, ordered student list for a class/section selection.
// Section is nil when the section key matched nothing; that is a displayable
// empty state, not an error.
type Roster struct {
	Students []RosterEntry
	Section  *SectionInfo
}

// ResolveRoster determines which students belong to (classID, sectionKey).
// sectionKey may be a section id or a section name; an id match wins over a
// name match because ids are unique and names are unique only by convention.
// A student belongs to the roster when its class reference matches classID and
// either its section reference matches sectionKey or its denormalized section
// name equals the resolved section's name. Order follows the input student
// list and is stable.
func ResolveRoster(classID, sectionKey string, students []StudentInfo, classes []ClassInfo) Roster {
	var class *ClassInfo
	for i := range classes {
		if classes[i].ID == classID {
			class = &classes[i]
			break
		}
	}
	if class == nil {
		return Roster{}
	}

	section := findSection(class.Sections, sectionKey)
	if section == nil {
		return Roster{}
	}

	roster := Roster{Section: section}
	for _, st := range students {
		if ExtractID(st.Class) != classID {
			continue
		}
		ref := ExtractID(st.Section)
		// Legacy sections may lack an id; an empty ref must never match one.
		refMatch := ref != "" && (ref == sectionKey || ref == section.ID)
		if refMatch || (st.SectionName != "" && st.SectionName == section.Name) {
			roster.Students = append(roster.Students, RosterEntry{
				StudentID:   st.ID,
				StudentName: st.FullName,
			})
		}
	}
	return roster
}

// findSection locates a section by id or name, preferring id matches.
func findSection(sections []SectionInfo, key string) *SectionInfo {
	if key == "" {
		return nil
	}
	for i := range sections {
		if sections[i].ID != "" && sections[i].ID == key {
			return &sections[i]
		}
	}
	for i := range sections {
		if sections[i].Name == key {
			return &sections[i]
		}
	}
	return nil
}
