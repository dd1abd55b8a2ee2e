package domain

import (
	"errors"
	"testing"
	"time"
)

func TestProgressMergeIsOrderIndependent(t *testing.T) {
	permutations := [][]int{
		{40, 90, 60}, {40, 60, 90}, {60, 40, 90},
		{60, 90, 40}, {90, 40, 60}, {90, 60, 40},
	}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, scores := range permutations {
		var entry ProgressEntry
		for _, s := range scores {
			entry = entry.Merge(s, 30, at)
		}
		if entry.BestScore != 90 {
			t.Fatalf("%v: expected best 90, got %d", scores, entry.BestScore)
		}
		if !entry.Completed {
			t.Fatalf("%v: expected completed", scores)
		}
		if entry.Attempts != 3 || entry.TimeSpent != 90 {
			t.Fatalf("%v: expected 3 attempts / 90s, got %d / %d", scores, entry.Attempts, entry.TimeSpent)
		}
	}
}

func TestProgressCompletedStaysTrue(t *testing.T) {
	entry := ProgressEntry{}.Merge(75, 10, time.Now())
	entry = entry.Merge(10, 10, time.Now())
	if !entry.Completed || entry.BestScore != 75 {
		t.Fatalf("expected completed with best 75, got %+v", entry)
	}

	failing := ProgressEntry{}.Merge(59, 10, time.Now())
	if failing.Completed {
		t.Fatalf("59%% must not complete a set")
	}
}

func TestSetUnlocked(t *testing.T) {
	if !SetUnlocked(1, nil) {
		t.Fatalf("set 1 is always unlocked")
	}
	if SetUnlocked(2, nil) {
		t.Fatalf("set 2 without predecessor progress must be locked")
	}
	passed := ProgressEntry{BestScore: 60, Completed: true}
	if !SetUnlocked(2, &passed) {
		t.Fatalf("expected set 2 unlocked after passing set 1")
	}
	// Rows written outside Merge may disagree; both columns must agree to unlock.
	inconsistent := ProgressEntry{BestScore: 40, Completed: true}
	if SetUnlocked(3, &inconsistent) {
		t.Fatalf("completed with best < threshold must not unlock")
	}
	notCompleted := ProgressEntry{BestScore: 80, Completed: false}
	if SetUnlocked(3, &notCompleted) {
		t.Fatalf("best >= threshold without completion must not unlock")
	}
}

func TestSetAvailableOnlyForN5(t *testing.T) {
	if !SetAvailable(LevelN5, SetRegular, 7) {
		t.Fatalf("expected N5 regular set 7 available")
	}
	if SetAvailable(LevelN4, SetRegular, 1) {
		t.Fatalf("expected N4 content unavailable")
	}
}

func TestLevelForPoints(t *testing.T) {
	cases := map[int]Level{0: LevelN5, 499: LevelN5, 500: LevelN4, 1500: LevelN3, 2999: LevelN3, 3000: LevelN2, 6000: LevelN1, 90000: LevelN1}
	for points, want := range cases {
		if got := LevelForPoints(points); got != want {
			t.Fatalf("points %d: expected %s, got %s", points, want, got)
		}
	}
}

func TestNextStreak(t *testing.T) {
	day := time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)
	if got := NextStreak(0, time.Time{}, day); got != 1 {
		t.Fatalf("first activity: expected 1, got %d", got)
	}
	if got := NextStreak(3, day, day.Add(time.Hour)); got != 3 {
		t.Fatalf("same day: expected 3, got %d", got)
	}
	if got := NextStreak(3, day, day.Add(4*time.Hour)); got != 4 {
		t.Fatalf("next day: expected 4, got %d", got)
	}
	if got := NextStreak(3, day, day.AddDate(0, 0, 3)); got != 1 {
		t.Fatalf("gap: expected reset to 1, got %d", got)
	}
}

func TestQuestionValidate(t *testing.T) {
	valid := Question{Type: TypeVocabulary, Level: LevelN5, Text: "水", Options: []string{"water", "fire"}, Correct: 1}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid question, got %v", err)
	}

	cases := map[string]Question{
		"bad type":       {Type: "music", Level: LevelN5, Text: "x", Options: []string{"a", "b"}},
		"bad level":      {Type: TypeKanji, Level: "N6", Text: "x", Options: []string{"a", "b"}},
		"empty text":     {Type: TypeKanji, Level: LevelN5, Text: " ", Options: []string{"a", "b"}},
		"one option":     {Type: TypeKanji, Level: LevelN5, Text: "x", Options: []string{"a"}},
		"six options":    {Type: TypeKanji, Level: LevelN5, Text: "x", Options: []string{"a", "b", "c", "d", "e", "f"}},
		"correct bounds": {Type: TypeKanji, Level: LevelN5, Text: "x", Options: []string{"a", "b"}, Correct: 2},
		"negative index": {Type: TypeKanji, Level: LevelN5, Text: "x", Options: []string{"a", "b"}, Correct: -1},
	}
	for name, q := range cases {
		if err := q.Validate(); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestNewPageRequest(t *testing.T) {
	p, err := NewPageRequest(3, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Offset() != 40 {
		t.Fatalf("expected offset 40, got %d", p.Offset())
	}
	if pg := p.Paginate(41); pg.Pages != 3 {
		t.Fatalf("expected 3 pages, got %d", pg.Pages)
	}
	for _, bad := range [][2]int{{0, 10}, {1, 0}, {1, 101}} {
		if _, err := NewPageRequest(bad[0], bad[1]); !errors.Is(err, ErrValidation) {
			t.Fatalf("%v: expected validation error, got %v", bad, err)
		}
	}
}

func TestAchievementRules(t *testing.T) {
	u := User{QuizScores: []QuizScore{{Score: 100}}}
	stats := StatsFor(u, 100)
	var earned []string
	for _, r := range AchievementRules {
		if r.Earned(stats) {
			earned = append(earned, r.Name)
		}
	}
	if len(earned) != 2 || earned[0] != "First Steps" || earned[1] != "Perfect Score" {
		t.Fatalf("expected First Steps and Perfect Score, got %v", earned)
	}
	if stats.PerfectScores != 1 {
		t.Fatalf("expected 1 perfect score, got %d", stats.PerfectScores)
	}
}
