package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/felixgeelhaar/lessonplay/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	lessonsFile     = "lessons.yaml"
	codesDir        = "codes"
	instructionsDir = "instructions"
)

// LessonsFile represents the YAML structure of lessons.yaml
type LessonsFile struct {
	Lessons []struct {
		Title    string   `yaml:"title"`
		Chapters []string `yaml:"chapters"`
	} `yaml:"lessons"`
}

// CodeFile represents the YAML structure of codes/lessonN.yaml
type CodeFile struct {
	Chapters []domain.ChapterCode `yaml:"chapters"`
}

// InstructionFile represents the YAML structure of instructions/<locale>.yaml:
// lesson key -> ordered chapter instructions
type InstructionFile map[string][]domain.Instruction

// Loader reads a catalog from a directory:
//
//	lessons.yaml
//	codes/lesson1.yaml
//	instructions/en.yaml
type Loader struct {
	basePath string
}

// NewLoader creates a new catalog loader
func NewLoader(basePath string) *Loader {
	return &Loader{basePath: basePath}
}

// BasePath returns the catalog root directory
func (l *Loader) BasePath() string {
	return l.basePath
}

// Load reads the whole catalog
func (l *Loader) Load() (*Catalog, error) {
	lessons, err := l.LoadLessons()
	if err != nil {
		return nil, err
	}

	codes, err := l.LoadCodes()
	if err != nil {
		return nil, err
	}

	instructions, err := l.LoadInstructions()
	if err != nil {
		return nil, err
	}

	return New(lessons, instructions, codes), nil
}

// LoadLessons reads lessons.yaml
func (l *Loader) LoadLessons() ([]domain.Lesson, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, lessonsFile))
	if err != nil {
		return nil, fmt.Errorf("read lessons file: %w", err)
	}

	var file LessonsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse lessons file: %w", err)
	}

	lessons := make([]domain.Lesson, len(file.Lessons))
	for i, l := range file.Lessons {
		lessons[i] = domain.Lesson{
			Number:   i + 1,
			Title:    l.Title,
			Chapters: l.Chapters,
		}
	}
	return lessons, nil
}

// LoadCodes reads every codes/lessonN.yaml. A missing codes directory
// yields an empty code catalog.
func (l *Loader) LoadCodes() (domain.Codes, error) {
	codes := domain.Codes{}

	files, err := l.yamlFiles(codesDir)
	if err != nil {
		return nil, err
	}

	for _, name := range files {
		key := strings.TrimSuffix(name, filepath.Ext(name))
		if !isLessonKey(key) {
			return nil, fmt.Errorf("%w: code file %s is not named lessonN.yaml", domain.ErrInvalidCatalog, name)
		}

		data, err := os.ReadFile(filepath.Join(l.basePath, codesDir, name))
		if err != nil {
			return nil, fmt.Errorf("read code file %s: %w", name, err)
		}

		var file CodeFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse code file %s: %w", name, err)
		}
		if file.Chapters == nil {
			file.Chapters = []domain.ChapterCode{}
		}
		codes[key] = file.Chapters
	}

	return codes, nil
}

// LoadInstructions reads every instructions/<locale>.yaml. A missing
// instructions directory yields no locales.
func (l *Loader) LoadInstructions() (domain.Instructions, error) {
	instructions := domain.Instructions{}

	files, err := l.yamlFiles(instructionsDir)
	if err != nil {
		return nil, err
	}

	for _, name := range files {
		locale := strings.TrimSuffix(name, filepath.Ext(name))

		data, err := os.ReadFile(filepath.Join(l.basePath, instructionsDir, name))
		if err != nil {
			return nil, fmt.Errorf("read instruction file %s: %w", name, err)
		}

		var file InstructionFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse instruction file %s: %w", name, err)
		}
		if file == nil {
			file = InstructionFile{}
		}
		instructions[locale] = file
	}

	return instructions, nil
}

// WatchPaths returns the directories a watcher should observe
func (l *Loader) WatchPaths() []string {
	return []string{
		l.basePath,
		filepath.Join(l.basePath, codesDir),
		filepath.Join(l.basePath, instructionsDir),
	}
}

func (l *Loader) yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(l.basePath, dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s directory: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func isLessonKey(key string) bool {
	_, ok := domain.ParseLessonKey(key)
	return ok
}
