// pattern: Functional Core
package profile

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

const (
	// MetadataNamespace is emitted on rendered documents.
	MetadataNamespace = "http://soap.sforce.com/2006/04/metadata"

	rootElementName = "Profile"
)

// Document is a permission profile: an ordered collection of named
// access-control entries grouped into sections.
type Document struct {
	Name    string
	Entries []Entry
}

// Entry is one named element inside a section, e.g. the "Account" object
// permissions or the "ApiEnabled" user permission.
type Entry struct {
	Section string
	Key     string
	Grants  map[string]string
}

// sectionKeyFields maps a section to the child element identifying an entry.
var sectionKeyFields = map[string]string{
	"userPermissions":         "name",
	"customPermissions":       "name",
	"objectPermissions":       "object",
	"fieldPermissions":        "field",
	"classAccesses":           "apexClass",
	"pageAccesses":            "apexPage",
	"recordTypeVisibilities":  "recordType",
	"tabVisibilities":         "tab",
	"applicationVisibilities": "application",
	"layoutAssignments":       "layout",
}

func keyFieldFor(section string) string {
	if field, known := sectionKeyFields[section]; known {
		return field
	}
	return "name"
}

// Parse decodes a permission document from its XML form. Entry order is
// preserved as encountered; duplicate entries are kept so validation can
// report them.
func Parse(name string, data []byte) (Document, error) {
	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	doc := Document{Name: name}
	sawRoot := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Document{}, fmt.Errorf("malformed profile document %q: %w", name, err)
		}

		start, isStart := token.(xml.StartElement)
		if !isStart {
			continue
		}

		if !sawRoot {
			if start.Name.Local != rootElementName {
				return Document{}, fmt.Errorf("profile document %q: unexpected root element %q", name, start.Name.Local)
			}
			sawRoot = true
			continue
		}

		entry, err := decodeEntry(decoder, start)
		if err != nil {
			return Document{}, fmt.Errorf("profile document %q: %w", name, err)
		}
		doc.Entries = append(doc.Entries, entry)
	}

	if !sawRoot {
		return Document{}, fmt.Errorf("profile document %q: missing %s root element", name, rootElementName)
	}

	return doc, nil
}

func decodeEntry(decoder *xml.Decoder, start xml.StartElement) (Entry, error) {
	section := start.Name.Local
	fields := make(map[string]string)
	order := make([]string, 0, 4)

	for {
		token, err := decoder.Token()
		if err != nil {
			return Entry{}, fmt.Errorf("section %q: %w", section, err)
		}

		switch typed := token.(type) {
		case xml.StartElement:
			var text string
			if err := decoder.DecodeElement(&text, &typed); err != nil {
				return Entry{}, fmt.Errorf("section %q: element %q: %w", section, typed.Name.Local, err)
			}
			if _, seen := fields[typed.Name.Local]; !seen {
				order = append(order, typed.Name.Local)
			}
			fields[typed.Name.Local] = strings.TrimSpace(text)
		case xml.EndElement:
			if typed.Name.Local == section {
				return buildEntry(section, fields, order)
			}
		}
	}
}

func buildEntry(section string, fields map[string]string, order []string) (Entry, error) {
	keyField := keyFieldFor(section)
	key, hasKey := fields[keyField]
	if !hasKey {
		// Fall back to the first child so unknown sections still diff by a
		// stable identity.
		if len(order) == 0 {
			return Entry{}, fmt.Errorf("section %q: entry has no child elements", section)
		}
		keyField = order[0]
		key = fields[keyField]
	}
	if key == "" {
		return Entry{}, fmt.Errorf("section %q: entry key element %q is empty", section, keyField)
	}

	grants := make(map[string]string, len(fields)-1)
	for field, value := range fields {
		if field == keyField {
			continue
		}
		grants[field] = value
	}

	return Entry{Section: section, Key: key, Grants: grants}, nil
}

// Render serializes the document deterministically: entries sorted by section
// then key, grants sorted by attribute name.
func Render(doc Document) ([]byte, error) {
	entries := append([]Entry(nil), doc.Entries...)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Section != entries[j].Section {
			return entries[i].Section < entries[j].Section
		}
		return entries[i].Key < entries[j].Key
	})

	var builder strings.Builder
	builder.WriteString(xml.Header)
	builder.WriteString(fmt.Sprintf("<%s xmlns=%q>\n", rootElementName, MetadataNamespace))

	for _, entry := range entries {
		if entry.Key == "" {
			return nil, fmt.Errorf("entry in section %q has an empty key", entry.Section)
		}

		builder.WriteString("    <" + entry.Section + ">\n")
		if err := writeLeaf(&builder, keyFieldFor(entry.Section), entry.Key); err != nil {
			return nil, err
		}

		attrs := make([]string, 0, len(entry.Grants))
		for attr := range entry.Grants {
			attrs = append(attrs, attr)
		}
		sort.Strings(attrs)
		for _, attr := range attrs {
			if err := writeLeaf(&builder, attr, entry.Grants[attr]); err != nil {
				return nil, err
			}
		}
		builder.WriteString("    </" + entry.Section + ">\n")
	}

	builder.WriteString("</" + rootElementName + ">\n")
	return []byte(builder.String()), nil
}

func writeLeaf(builder *strings.Builder, tag, value string) error {
	var escaped strings.Builder
	if err := xml.EscapeText(&escaped, []byte(value)); err != nil {
		return err
	}
	builder.WriteString("        <" + tag + ">" + escaped.String() + "</" + tag + ">\n")
	return nil
}

// Flatten maps every grant to its element path:
// section '.' key '.' attribute. Later duplicates overwrite earlier ones; the
// validator reports duplicates before a merge relies on the flattened view.
func (doc Document) Flatten() map[string]string {
	flat := make(map[string]string)
	for _, entry := range doc.Entries {
		for attr, value := range entry.Grants {
			flat[ElementPath(entry.Section, entry.Key, attr)] = value
		}
	}
	return flat
}

// ElementPath builds the canonical path for one grant.
func ElementPath(section, key, attr string) string {
	return section + "." + key + "." + attr
}

// SplitPath is the inverse of ElementPath. Keys may themselves contain dots
// (field paths like Account.Rating); sections and attributes never do.
func SplitPath(path string) (section, key, attr string, err error) {
	first := strings.Index(path, ".")
	last := strings.LastIndex(path, ".")
	if first < 0 || first == last {
		return "", "", "", fmt.Errorf("element path %q is not section.key.attribute", path)
	}
	return path[:first], path[first+1 : last], path[last+1:], nil
}

// FromFlat rebuilds a document from a flattened path->value view.
func FromFlat(name string, flat map[string]string) (Document, error) {
	type entryIdentity struct {
		section string
		key     string
	}

	grouped := make(map[entryIdentity]map[string]string)
	identities := make([]entryIdentity, 0)

	paths := make([]string, 0, len(flat))
	for path := range flat {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		section, key, attr, err := SplitPath(path)
		if err != nil {
			return Document{}, err
		}
		identity := entryIdentity{section: section, key: key}
		if _, seen := grouped[identity]; !seen {
			grouped[identity] = make(map[string]string)
			identities = append(identities, identity)
		}
		grouped[identity][attr] = flat[path]
	}

	doc := Document{Name: name, Entries: make([]Entry, 0, len(identities))}
	for _, identity := range identities {
		doc.Entries = append(doc.Entries, Entry{
			Section: identity.section,
			Key:     identity.key,
			Grants:  grouped[identity],
		})
	}
	return doc, nil
}

// Clone returns a deep copy.
func (doc Document) Clone() Document {
	clone := Document{Name: doc.Name, Entries: make([]Entry, 0, len(doc.Entries))}
	for _, entry := range doc.Entries {
		grants := make(map[string]string, len(entry.Grants))
		for attr, value := range entry.Grants {
			grants[attr] = value
		}
		clone.Entries = append(clone.Entries, Entry{Section: entry.Section, Key: entry.Key, Grants: grants})
	}
	return clone
}
