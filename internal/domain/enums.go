package domain

// Level is a JLPT proficiency tier.
type Level string

const (
	LevelN5 Level = "N5"
	LevelN4 Level = "N4"
	LevelN3 Level = "N3"
	LevelN2 Level = "N2"
	LevelN1 Level = "N1"
)

// Levels lists every level from beginner to advanced.
var Levels = []Level{LevelN5, LevelN4, LevelN3, LevelN2, LevelN1}

// ParseLevel accepts exactly one of N5..N1.
func ParseLevel(raw string) (Level, error) {
	for _, l := range Levels {
		if string(l) == raw {
			return l, nil
		}
	}
	return "", Invalid("level", "invalid level %q, must be one of N5, N4, N3, N2, N1", raw)
}

// QuestionType is the category a question belongs to.
type QuestionType string

const (
	TypeVocabulary QuestionType = "vocabulary"
	TypeGrammar    QuestionType = "grammar"
	TypeKanji      QuestionType = "kanji"
	TypeReading    QuestionType = "reading"
)

var questionTypes = []QuestionType{TypeVocabulary, TypeGrammar, TypeKanji, TypeReading}

// ParseQuestionType accepts exactly one of vocabulary, grammar, kanji, reading.
func ParseQuestionType(raw string) (QuestionType, error) {
	for _, t := range questionTypes {
		if string(t) == raw {
			return t, nil
		}
	}
	return "", Invalid("type", "invalid type %q, must be one of vocabulary, grammar, kanji, reading", raw)
}

// SetType partitions the quiz sets of a level into independent unlock chains.
type SetType string

const (
	SetRegular SetType = "regular"
	SetGrammar SetType = "grammar"
	SetReading SetType = "reading"
)

// SetTypes lists every set chain.
var SetTypes = []SetType{SetRegular, SetGrammar, SetReading}

// ParseSetType accepts exactly one of regular, grammar, reading.
func ParseSetType(raw string) (SetType, error) {
	for _, t := range SetTypes {
		if string(t) == raw {
			return t, nil
		}
	}
	return "", Invalid("setType", "invalid set type %q, must be one of regular, grammar, reading", raw)
}
