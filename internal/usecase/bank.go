package usecase

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
)

//go:embed questionbank.yaml
var questionBankYAML []byte

// BankQuestion is one canned prompt from the static question bank.
type BankQuestion struct {
	Topic    string `yaml:"topic"`
	Prompt   string `yaml:"prompt"`
	Expected string `yaml:"expected"`
}

// QuestionBank is the static catalog backing the template pool and the
// last-resort selection tier.
type QuestionBank struct {
	Easy   []BankQuestion `yaml:"easy"`
	Medium []BankQuestion `yaml:"medium"`
	Hard   []BankQuestion `yaml:"hard"`
}

// ForDifficulty returns the bank slice for a difficulty.
func (b *QuestionBank) ForDifficulty(d domain.Difficulty) []BankQuestion {
	switch d {
	case domain.DifficultyEasy:
		return b.Easy
	case domain.DifficultyMedium:
		return b.Medium
	case domain.DifficultyHard:
		return b.Hard
	default:
		return nil
	}
}

// LoadQuestionBank parses the embedded catalog.
func LoadQuestionBank() (*QuestionBank, error) {
	var b QuestionBank
	if err := yaml.Unmarshal(questionBankYAML, &b); err != nil {
		return nil, fmt.Errorf("op=bank.load: %w", err)
	}
	return &b, nil
}

// MustLoadQuestionBank panics on a malformed embedded catalog; the file ships
// with the binary so a parse failure is a build defect.
func MustLoadQuestionBank() *QuestionBank {
	b, err := LoadQuestionBank()
	if err != nil {
		panic(err)
	}
	return b
}
