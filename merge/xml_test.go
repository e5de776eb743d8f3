package merge

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"
)

func parseSettings(t *testing.T, path string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		t.Fatalf("Failed to parse %s: %v", path, err)
	}
	root := doc.Root()
	if root == nil {
		t.Fatalf("No root element in %s", path)
	}
	return root
}

func findSetting(root *etree.Element, tag, name string) *etree.Element {
	for _, el := range root.ChildElements() {
		if el.Tag == tag && el.SelectAttrValue("name", "") == name {
			return el
		}
	}
	return nil
}

func TestXMLMerge_OverridesAndAppends(t *testing.T) {
	dir := t.TempDir()
	target := writeTestFile(t, dir, "settings.xml",
		`<settings>
  <string name="Locale" value="en_US"/>
  <bool name="AutoUpdate" value="false"/>
</settings>
`)
	source := writeTestFile(t, dir, "bootstrap.settings.xml",
		`<settings>
  <string name="Locale" value="fr_FR"/>
  <bool name="EnableSound" value="true"/>
</settings>
`)

	eng := newXML(Options{})
	if err := eng.Merge(source, target); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	root := parseSettings(t, target)

	if got := len(root.ChildElements()); got != 3 {
		t.Errorf("Child count = %d, want 3", got)
	}
	if el := findSetting(root, "string", "Locale"); el == nil {
		t.Error("Locale entry is gone")
	} else if v := el.SelectAttrValue("value", ""); v != "fr_FR" {
		t.Errorf("Locale value = %q, want fr_FR", v)
	}
	if el := findSetting(root, "bool", "AutoUpdate"); el == nil {
		t.Error("AutoUpdate entry is gone")
	} else if v := el.SelectAttrValue("value", ""); v != "false" {
		t.Errorf("AutoUpdate value = %q, want false", v)
	}
	if el := findSetting(root, "bool", "EnableSound"); el == nil {
		t.Error("EnableSound entry was not appended")
	} else if v := el.SelectAttrValue("value", ""); v != "true" {
		t.Errorf("EnableSound value = %q, want true", v)
	}
}

func TestXMLMerge_SameNameDifferentTagAreDistinct(t *testing.T) {
	dir := t.TempDir()
	target := writeTestFile(t, dir, "settings.xml",
		`<settings><int name="Timeout" value="30"/></settings>`)
	source := writeTestFile(t, dir, "bootstrap.settings.xml",
		`<settings><string name="Timeout" value="forever"/></settings>`)

	eng := newXML(Options{})
	if err := eng.Merge(source, target); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	root := parseSettings(t, target)
	if got := len(root.ChildElements()); got != 2 {
		t.Fatalf("Child count = %d, want 2", got)
	}
	if el := findSetting(root, "int", "Timeout"); el == nil || el.SelectAttrValue("value", "") != "30" {
		t.Error("int Timeout entry was modified or removed")
	}
	if el := findSetting(root, "string", "Timeout"); el == nil || el.SelectAttrValue("value", "") != "forever" {
		t.Error("string Timeout entry was not appended")
	}
}

func TestXMLMerge_NeverProducesDuplicatePairs(t *testing.T) {
	dir := t.TempDir()
	target := writeTestFile(t, dir, "settings.xml",
		`<settings><string name="Locale" value="en_US"/></settings>`)
	source := writeTestFile(t, dir, "bootstrap.settings.xml",
		`<settings>
  <string name="Locale" value="fr_FR"/>
  <string name="Locale" value="de_DE"/>
</settings>`)

	eng := newXML(Options{})
	if err := eng.Merge(source, target); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	root := parseSettings(t, target)
	seen := make(map[settingKey]int)
	for _, el := range root.ChildElements() {
		seen[settingKey{name: el.SelectAttrValue("name", ""), tag: el.Tag}]++
	}
	for key, count := range seen {
		if count > 1 {
			t.Errorf("Duplicate entry for (%s, %s): %d occurrences", key.name, key.tag, count)
		}
	}
}

func TestXMLMerge_Idempotent(t *testing.T) {
	dir := t.TempDir()
	target := writeTestFile(t, dir, "settings.xml",
		`<settings>
  <string name="Locale" value="en_US"/>
  <int name="Volume" value="5"/>
</settings>
`)
	source := writeTestFile(t, dir, "bootstrap.settings.xml",
		`<settings>
  <string name="Locale" value="fr_FR"/>
  <bool name="EnableSound" value="true"/>
</settings>
`)

	eng := newXML(Options{})
	if err := eng.Merge(source, target); err != nil {
		t.Fatalf("First Merge() error = %v", err)
	}
	first := readTestFile(t, target)

	if err := eng.Merge(source, target); err != nil {
		t.Fatalf("Second Merge() error = %v", err)
	}
	second := readTestFile(t, target)

	if first != second {
		t.Errorf("Merge() is not idempotent:\nfirst  = %q\nsecond = %q", first, second)
	}
}

func TestXMLMerge_IndentationAndNoBlankLines(t *testing.T) {
	dir := t.TempDir()
	target := writeTestFile(t, dir, "settings.xml",
		"<settings>\n\n\n      <string name=\"Locale\"   value=\"en_US\"/>\n\n</settings>\n")
	source := writeTestFile(t, dir, "bootstrap.settings.xml",
		`<settings><bool name="EnableSound" value="true"/></settings>`)

	eng := newXML(Options{})
	if err := eng.Merge(source, target); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	got := readTestFile(t, target)
	for i, line := range strings.Split(strings.TrimSuffix(got, "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			t.Errorf("Blank line %d in output %q", i+1, got)
		}
	}
	if !strings.Contains(got, "\n  <string name=\"Locale\" value=\"en_US\"/>") {
		t.Errorf("Expected two-space indented Locale entry, got %q", got)
	}
	if !strings.Contains(got, "\n  <bool name=\"EnableSound\" value=\"true\"/>") {
		t.Errorf("Expected two-space indented EnableSound entry, got %q", got)
	}
}

func TestXMLMerge_MalformedTarget(t *testing.T) {
	dir := t.TempDir()
	target := writeTestFile(t, dir, "settings.xml", "")
	source := writeTestFile(t, dir, "bootstrap.settings.xml",
		`<settings><bool name="EnableSound" value="true"/></settings>`)

	eng := newXML(Options{})
	if err := eng.Merge(source, target); err == nil {
		t.Fatal("Merge() with empty target expected error, got nil")
	}
}

func TestXMLMerge_MissingFragment(t *testing.T) {
	dir := t.TempDir()
	target := writeTestFile(t, dir, "settings.xml",
		`<settings><string name="Locale" value="en_US"/></settings>`)

	eng := newXML(Options{})
	if err := eng.Merge(filepath.Join(dir, "absent.xml"), target); err == nil {
		t.Fatal("Merge() with missing fragment expected error, got nil")
	}
}
