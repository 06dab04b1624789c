package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/lessonplay/internal/domain"
)

const testLessonsYAML = `lessons:
  - title: Hello Scilla
    chapters:
      - Contracts
      - Fields
      - Transitions
  - title: Types
    chapters:
      - Integers
      - Strings
      - Maps
      - Options
  - title: Empty
    chapters: []
`

const testLesson1Codes = `chapters:
  - initial_code: "contract Hello()"
    answer_code: "contract Hello()\nfield welcome_msg : String = \"\""
  - initial_code: "field a : Uint32"
    answer_code: "field a : Uint32 = Uint32 0"
  - initial_code: "transition setHello ()"
    answer_code: "transition setHello ()\nend"
`

const testLesson2Codes = `chapters:
  - initial_code: "let x = Uint32 1"
    answer_code: "let x = Uint32 1"
  - initial_code: "let s = \"\""
    answer_code: "let s = \"hi\""
  - initial_code: ""
    answer_code: "Emp String Uint32"
  - initial_code: ""
    answer_code: "None {Uint32}"
`

const testEnInstructions = `lesson1:
  - title: Contracts
    content: "# Contracts\nDeclare a contract."
  - title: Fields
    content: "Declare a field."
  - title: Transitions
    content: "Write a transition."
lesson2:
  - title: Integers
    content: "Integers are sized."
  - title: Strings
    content: "Strings are quoted."
  - title: Maps
    content: "Maps map keys."
  - title: Options
    content: "Options may be empty."
`

const testKoInstructions = `lesson1:
  - title: 컨트랙트
    content: "컨트랙트를 선언하세요."
`

// writeTestCatalog writes a small catalog tree and returns its root
func writeTestCatalog(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	files := map[string]string{
		"lessons.yaml":         testLessonsYAML,
		"codes/lesson1.yaml":   testLesson1Codes,
		"codes/lesson2.yaml":   testLesson2Codes,
		"instructions/en.yaml": testEnInstructions,
		"instructions/ko.yaml": testKoInstructions,
	}
	for name, content := range files {
		writeFile(t, filepath.Join(root, name), content)
	}
	return root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// newTestCatalog builds a catalog in memory
func newTestCatalog() *Catalog {
	lessons := []domain.Lesson{
		{Title: "Hello", Chapters: []string{"a", "b", "c"}},
		{Title: "Types", Chapters: []string{"a", "b", "c", "d"}},
	}
	instructions := domain.Instructions{
		"en": {
			"lesson1": {{Title: "a"}, {Title: "b"}, {Title: "c"}},
			"lesson2": {{Title: "a"}, {Title: "b"}},
		},
	}
	codes := domain.Codes{
		"lesson1": {
			{InitialCode: "i1", AnswerCode: "a1"},
			{InitialCode: "i2", AnswerCode: "a2"},
			{InitialCode: "i3", AnswerCode: "a3"},
		},
	}
	return New(lessons, instructions, codes)
}
