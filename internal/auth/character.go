// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

package auth

// Job is a character class as stored in charac_info.job.
type Job int32

// Known classes. Any other stored value maps to JobUnknown.
const (
	JobMaleSlayer Job = iota
	JobFemaleFighter
	JobMaleGunner
	JobFemaleMage
	JobMalePriest
	JobFemaleGunner
	JobThief
	JobMaleFighter
	JobMaleMage
	JobFemalePriest
	JobFemaleSlayer
	JobUnknown Job = -1
)

var jobNames = map[Job]string{
	JobMaleSlayer:    "Male Slayer",
	JobFemaleFighter: "Female Fighter",
	JobMaleGunner:    "Male Gunner",
	JobFemaleMage:    "Female Mage",
	JobMalePriest:    "Male Priest",
	JobFemaleGunner:  "Female Gunner",
	JobThief:         "Thief",
	JobMaleFighter:   "Male Fighter",
	JobMaleMage:      "Male Mage",
	JobFemalePriest:  "Female Priest",
	JobFemaleSlayer:  "Female Slayer",
}

// JobFromID maps a stored job id to a Job.
func JobFromID(id int32) Job {
	job := Job(id)
	if _, ok := jobNames[job]; !ok {
		return JobUnknown
	}
	return job
}

// String returns the display name of the class.
func (j Job) String() string {
	if name, ok := jobNames[j]; ok {
		return name
	}
	return "Unknown"
}

// Character is one entry of an account's roster.
type Character struct {
	ID    int32
	Name  string
	Level int32
	Job   Job
	// Money is the in-game gold balance; 0 when no inventory row exists.
	Money int64
}
