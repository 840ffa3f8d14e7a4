package interval

import (
	"sort"

	"github.com/claude/calilog/internal/models"
)

func sortSlots(slots []models.IntervalProgramExercise) {
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].SortOrder < slots[j].SortOrder })
}
