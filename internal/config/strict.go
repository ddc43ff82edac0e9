package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/qdash/qdash/internal/errors"
)

// Known key sets per config section. Used to catch typos that viper would
// silently drop.
var knownKeys = map[string]map[string]bool{
	"": {
		"database": true,
		"query":    true,
		"show":     true,
	},
	"database": {
		"type":    true,
		"url":     true,
		"timeout": true,
	},
	"query": {
		"sql":  true,
		"args": true,
	},
	"query.args": {
		"key":         true,
		"type":        true,
		"default":     true,
		"description": true,
	},
	"show": {
		"type":             true,
		"title":            true,
		"interval":         true,
		"column_list":      true,
		"x_column":         true,
		"y_column":         true,
		"value_column":     true,
		"label_column":     true,
		"category_column":  true,
		"size_column":      true,
		"bins":             true,
		"orientation":      true,
		"max_rows":         true,
		"show_countdown":   true,
		"countdown_format": true,
		"style":            true,
	},
	"show.column_list": {
		"column": true,
		"alias":  true,
		"width":  true,
		"align":  true,
	},
	"show.style": {
		"width":  true,
		"height": true,
		"color":  true,
	},
}

// checkUnknownKeys parses the file with yaml.v3 and rejects keys that no
// config field maps to. Viper ignores unknown keys, which turns a typo like
// "titel" into a silently missing title.
func checkUnknownKeys(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		// Load reports unreadable files; nothing to lint here.
		return nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid YAML in "+path,
			"Check the file for indentation or quoting mistakes")
	}
	if len(root.Content) == 0 {
		return nil
	}
	return walkKeys(root.Content[0], "")
}

func walkKeys(node *yaml.Node, section string) error {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	allowed := knownKeys[section]
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		value := node.Content[i+1]

		if allowed != nil && !allowed[key.Value] {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Unknown field '%s' at line %d", keyPath(section, key.Value), key.Line),
				fmt.Sprintf("Did you mean one of: %s?", sortedKeys(allowed)))
		}

		child := keyPath(section, key.Value)
		switch value.Kind {
		case yaml.MappingNode:
			if err := walkKeys(value, child); err != nil {
				return err
			}
		case yaml.SequenceNode:
			for _, item := range value.Content {
				if err := walkKeys(item, child); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func keyPath(section, key string) string {
	if section == "" {
		return key
	}
	return section + "." + key
}
