package merge

import (
	"fmt"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// settingKey identifies one XML setting. The element tag encodes the value's
// primitive type, so entries with the same name but different tags are
// distinct settings.
type settingKey struct {
	name string
	tag  string
}

// xmlSettings merges attribute-based XML settings files where each immediate
// child of the root carries "name" and "value" attributes.
type xmlSettings struct {
	opts Options
	log  *zap.Logger
}

func newXML(opts Options) Engine {
	return &xmlSettings{opts: opts, log: opts.logger().Named("xml")}
}

// Merge overwrites the value attribute of every target child matching a
// fragment (name, tag) pair and appends fragment entries the target does not
// have. The target stays authoritative for structure and ordering of
// pre-existing entries, new entries go to the end to minimize diff noise
// against the shipped default file.
func (e *xmlSettings) Merge(sourcePath, targetPath string) error {

	src, err := readSettingsDoc(sourcePath)
	if err != nil {
		return fmt.Errorf("unable to parse fragment '%s': %w", sourcePath, err)
	}
	tgt, err := readSettingsDoc(targetPath)
	if err != nil {
		return fmt.Errorf("unable to parse target '%s': %w", targetPath, err)
	}

	srcRoot, tgtRoot := src.Root(), tgt.Root()
	if srcRoot == nil {
		return fmt.Errorf("fragment '%s' has no root element", sourcePath)
	}
	if tgtRoot == nil {
		return fmt.Errorf("target '%s' has no root element", targetPath)
	}

	// Desired state keyed by (name, tag), last fragment entry wins on
	// duplicates. Insertion order is kept for deterministic appends.
	desired := make(map[settingKey]string)
	var order []settingKey
	for _, el := range srcRoot.ChildElements() {
		key := settingKey{name: el.SelectAttrValue("name", ""), tag: el.Tag}
		if _, ok := desired[key]; !ok {
			order = append(order, key)
		}
		desired[key] = el.SelectAttrValue("value", "")
	}

	// Overwrite matching entries in place. A matched key is removed from the
	// desired set so it is not re-appended, keeping at most one merged entry
	// per (name, tag) pair.
	for _, el := range tgtRoot.ChildElements() {
		key := settingKey{name: el.SelectAttrValue("name", ""), tag: el.Tag}
		value, ok := desired[key]
		if !ok {
			continue
		}
		e.log.Debug("Overriding setting",
			zap.String("name", key.name),
			zap.String("type", key.tag),
			zap.String("value", e.opts.maskValue(key.name, value)))
		el.CreateAttr("value", value)
		delete(desired, key)
	}

	for _, key := range order {
		value, ok := desired[key]
		if !ok {
			continue
		}
		e.log.Debug("Appending setting",
			zap.String("name", key.name),
			zap.String("type", key.tag),
			zap.String("value", e.opts.maskValue(key.name, value)))
		el := tgtRoot.CreateElement(key.tag)
		el.CreateAttr("name", key.name)
		el.CreateAttr("value", value)
	}

	// reformat with stable indentation, no blank-only lines survive
	tgt.Indent(e.opts.indent())
	if err := tgt.WriteToFile(targetPath); err != nil {
		return fmt.Errorf("unable to write target '%s': %w", targetPath, err)
	}
	return nil
}

func readSettingsDoc(path string) (*etree.Document, error) {
	doc := etree.NewDocument()
	// Appliance settings files may carry legacy encodings in the XML
	// declaration, respect those
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Permissive:    true,
	}
	if err := doc.ReadFromFile(path); err != nil {
		return nil, err
	}
	return doc, nil
}
