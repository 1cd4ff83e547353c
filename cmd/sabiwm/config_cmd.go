package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/sabiwm/internal/config"
)

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  sabiwm config path")
	fmt.Fprintln(w, "  sabiwm config validate [--path PATH]")
	fmt.Fprintln(w, "  sabiwm config print [--path PATH] [--defaults]")
	fmt.Fprintln(w, "  sabiwm config explain [--path PATH] <yaml.path>")
}

func runConfig(args []string) int {
	if len(args) == 0 {
		printConfigUsage(os.Stderr)
		return 2
	}
	if isHelp(args) {
		printConfigUsage(os.Stdout)
		return 0
	}

	switch args[0] {
	case "path":
		fs := newFlagSet("path", "Usage: sabiwm config path")
		if code := parse(fs, args[1:], 0); code >= 0 {
			return code
		}
		path, err := config.DefaultConfigPath()
		if err != nil {
			return fail(err)
		}
		fmt.Println(path)
		return 0

	case "validate":
		fs := newFlagSet("validate", "Usage: sabiwm config validate [--path PATH]")
		path := fs.String("path", "", "Config file path (default: $XDG_CONFIG_HOME/sabiwm/config.yaml)")
		if code := parse(fs, args[1:], 0); code >= 0 {
			return code
		}
		res, err := loadConfig(*path)
		if err != nil {
			return fail(err)
		}
		if res.File == "" {
			fmt.Println("config: ok (no file, using defaults)")
			return 0
		}
		fmt.Printf("config: ok (%s)\n", res.File)
		return 0

	case "print":
		fs := newFlagSet("print", "Usage: sabiwm config print [--path PATH] [--defaults]")
		path := fs.String("path", "", "Config file path (default: $XDG_CONFIG_HOME/sabiwm/config.yaml)")
		defaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if code := parse(fs, args[1:], 0); code >= 0 {
			return code
		}
		cfg := config.DefaultConfig()
		if !*defaults {
			res, err := loadConfig(*path)
			if err != nil {
				return fail(err)
			}
			cfg = res.Config
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fail(err)
		}
		fmt.Print(string(data))
		return 0

	case "explain":
		fs := newFlagSet("explain",
			"Usage: sabiwm config explain [--path PATH] <yaml.path>",
			"",
			"Print the effective value of a setting and where it came from.",
			"Example: sabiwm config explain layouts.grid.mode",
		)
		path := fs.String("path", "", "Config file path (default: $XDG_CONFIG_HOME/sabiwm/config.yaml)")
		if code := parse(fs, args[1:], 1); code >= 0 {
			return code
		}
		res, err := loadConfig(*path)
		if err != nil {
			return fail(err)
		}
		query := fs.Arg(0)
		value, err := lookupYAML(res.Config, query)
		if err != nil {
			return fail(err)
		}
		out, err := yaml.Marshal(value)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("path: %s\n", query)
		fmt.Printf("source: %s\n", formatSource(res.Sources, query))
		fmt.Printf("value:\n%s", string(out))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n\n", args[0])
		printConfigUsage(os.Stderr)
		return 2
	}
}

func loadConfig(path string) (*config.LoadResult, error) {
	path, err := resolveConfigPath(path)
	if err != nil {
		return nil, err
	}
	return config.LoadFromPath(path)
}

// lookupYAML resolves a dotted path against the YAML encoding of cfg.
func lookupYAML(cfg *config.Config, path string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return nil, err
	}
	node := &doc
	for _, key := range strings.Split(path, ".") {
		if node.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%s: not found", path)
		}
		var next *yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == key {
				next = node.Content[i+1]
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("%s: not found", path)
		}
		node = next
	}
	return node, nil
}

// formatSource reports the file position a setting was read from, or
// "default" when no file set it. A path inherits the source of its
// nearest configured parent.
func formatSource(sources map[string]config.Source, path string) string {
	for p := path; p != ""; {
		if src, ok := sources[p]; ok {
			if src.Line > 0 {
				return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
			}
			return "file:" + src.File
		}
		i := strings.LastIndex(p, ".")
		if i < 0 {
			break
		}
		p = p[:i]
	}
	return "default"
}
