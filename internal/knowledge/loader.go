package knowledge

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

const (
	domainsDir   = "domains"
	questionsDir = "questions"
)

// Load reads every domain and question file under rootDir, validates them and
// returns the read-only catalog. Any inconsistency aborts the load.
func Load(rootDir string) (*Catalog, error) {
	var (
		domains   []Domain
		questions = make(map[string][]Question)
		problems  []string
	)

	domainFiles, err := yamlFiles(filepath.Join(rootDir, domainsDir))
	if err != nil {
		return nil, fmt.Errorf("loading content: %w", err)
	}
	for _, path := range domainFiles {
		var d Domain
		p, err := decodeValidated(path, domainSchema, &d)
		if err != nil {
			return nil, fmt.Errorf("loading content: %w", err)
		}
		if len(p) > 0 {
			problems = append(problems, p...)
			continue
		}
		domains = append(domains, d)
	}

	questionFiles, err := yamlFiles(filepath.Join(rootDir, questionsDir))
	if err != nil {
		return nil, fmt.Errorf("loading content: %w", err)
	}
	for _, path := range questionFiles {
		var qf questionFile
		p, err := decodeValidated(path, questionSchema, &qf)
		if err != nil {
			return nil, fmt.Errorf("loading content: %w", err)
		}
		if len(p) > 0 {
			problems = append(problems, p...)
			continue
		}
		if _, dup := questions[qf.Domain]; dup {
			problems = append(problems, fmt.Sprintf("%s: duplicate question file for %s", path, qf.Domain))
			continue
		}
		for i := range qf.Questions {
			qf.Questions[i].Domain = qf.Domain
		}
		questions[qf.Domain] = qf.Questions
	}

	if len(problems) > 0 {
		return nil, &IntegrityError{Problems: problems}
	}

	catalog, err := NewCatalog(domains, questions)
	if err != nil {
		return nil, err
	}

	slog.Info("knowledge loaded",
		"domains", len(catalog.domains),
		"questions", len(catalog.AllQuestions()),
		"path", rootDir,
	)
	return catalog, nil
}

// decodeValidated parses path twice: once untyped for schema validation and
// once into out. Schema problems are returned, not treated as errors.
func decodeValidated(path string, schema *gojsonschema.Schema, out any) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return []string{fmt.Sprintf("%s: invalid YAML: %v", path, err)}, nil
	}
	problems, err := validateDocument(schema, path, doc)
	if err != nil || len(problems) > 0 {
		return problems, err
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return []string{fmt.Sprintf("%s: %v", path, err)}, nil
	}
	return nil, nil
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name := e.Name(); strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}
