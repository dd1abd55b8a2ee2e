package domain

import "time"

// PassThreshold is the percentage that completes a set and unlocks the next one.
const PassThreshold = 60

// SetsPerType is the number of sets in each (level, set type) chain.
const SetsPerType = 7

// Passed reports whether a percentage meets the pass threshold.
func Passed(percentage int) bool {
	return percentage >= PassThreshold
}

// ProgressKey identifies one set for one user.
type ProgressKey struct {
	UserID    string  `json:"userId"`
	Level     Level   `json:"level"`
	SetType   SetType `json:"setType"`
	SetNumber int     `json:"setNumber"`
}

// Previous is the key of the set that gates this one.
func (k ProgressKey) Previous() ProgressKey {
	k.SetNumber--
	return k
}

// Validate checks the set number range; enum fields are validated at parse time.
func (k ProgressKey) Validate() error {
	if k.UserID == "" {
		return Invalid("userId", "is required")
	}
	if k.SetNumber < 1 || k.SetNumber > SetsPerType {
		return Invalid("setNumber", "must be between 1 and %d", SetsPerType)
	}
	return nil
}

// ProgressEntry is a user's merged history on one set.
type ProgressEntry struct {
	ProgressKey
	BestScore     int       `json:"bestScore"`
	Completed     bool      `json:"completed"`
	Attempts      int       `json:"attempts"`
	TimeSpent     int       `json:"timeSpent"`
	LastAttempted time.Time `json:"lastAttempted"`
}

// Merge folds one attempt into the entry. BestScore and Completed never decrease.
func (e ProgressEntry) Merge(percentage, timeSpent int, at time.Time) ProgressEntry {
	if percentage > e.BestScore {
		e.BestScore = percentage
	}
	e.Completed = e.Completed || Passed(percentage)
	e.Attempts++
	e.TimeSpent += timeSpent
	e.LastAttempted = at
	return e
}

// Unlocks reports whether the entry opens the following set.
// Completed already implies BestScore >= PassThreshold under Merge; both are checked because
// rows can also be written by migrations that set the columns independently.
func (e ProgressEntry) Unlocks() bool {
	return e.Completed && e.BestScore >= PassThreshold
}

// SetUnlocked decides whether setNumber is playable given its predecessor's entry, if any.
func SetUnlocked(setNumber int, previous *ProgressEntry) bool {
	if setNumber == 1 {
		return true
	}
	return previous != nil && previous.Unlocks()
}

// setContent lists how many sets carry questions per level and set type.
// Only N5 has content; every other level is not yet available.
var setContent = map[Level]map[SetType]int{
	LevelN5: {
		SetRegular: SetsPerType,
		SetGrammar: 4,
		SetReading: 3,
	},
}

// SetAvailable reports whether a set has content to play.
func SetAvailable(level Level, setType SetType, setNumber int) bool {
	return setNumber >= 1 && setNumber <= setContent[level][setType]
}

// SetStatus is a set's progress together with its lock state.
type SetStatus struct {
	SetType   SetType   `json:"setType"`
	SetNumber int       `json:"setNumber"`
	Unlocked  bool      `json:"unlocked"`
	Available bool      `json:"available"`
	BestScore int       `json:"bestScore"`
	Completed bool      `json:"completed"`
	Attempts  int       `json:"attempts"`
	TimeSpent int       `json:"timeSpent"`
	LastAt    time.Time `json:"lastAttempted,omitempty"`
}
