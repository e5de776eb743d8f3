package apply

import (
	"github.com/beevik/etree"
	yaml "gopkg.in/yaml.v3"

	"bootmerge/config"
	"bootmerge/merge"
	"bootmerge/utils/debug"
)

// settingsOutline renders the merged XML settings tree as an indented text
// outline for the debug report, with secret-looking values masked.
func settingsOutline(path string, secrets []string) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return "", err
	}
	root := doc.Root()
	if root == nil {
		return "", nil
	}

	tw := debug.NewTreeWriter()
	tw.Line(0, "%s", root.Tag)
	for _, el := range root.ChildElements() {
		name := el.SelectAttrValue("name", "")
		value := el.SelectAttrValue("value", "")
		if config.IsSecretName(name, secrets) {
			value = config.SecretStringValue
		}
		tw.Line(1, "%s %s", el.Tag, name)
		tw.Attr(2, "value", value)
	}
	return tw.String(), nil
}

type settingEntry struct {
	Key   string `yaml:"key"`
	Value any    `yaml:"value"`
}

// settingsSummary renders live entries of a merged key=value target as YAML.
// Values of secret-looking keys are carried as config.SecretString so they
// come out masked.
func settingsSummary(path string, secrets []string) ([]byte, error) {
	settings, err := merge.Settings(path)
	if err != nil {
		return nil, err
	}
	out := make([]settingEntry, 0, len(settings))
	for _, s := range settings {
		e := settingEntry{Key: s.Key, Value: s.Value}
		if config.IsSecretName(s.Key, secrets) {
			e.Value = config.SecretString(s.Value)
		}
		out = append(out, e)
	}
	return yaml.Marshal(out)
}
