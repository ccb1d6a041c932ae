package core

// DepartmentCount is the headcount of one department.
type DepartmentCount struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

// DirectoryStats are the dashboard figures for a record set.
type DirectoryStats struct {
	Total        int               `json:"total"`
	Active       int               `json:"active"`
	Departments  int               `json:"departments"`
	ByDepartment []DepartmentCount `json:"byDepartment"`
}

// Summarize counts records overall, by status and by department.
// ByDepartment keeps the order in which departments first appear.
func Summarize(records []Employee) DirectoryStats {
	stats := DirectoryStats{
		Total:        len(records),
		ByDepartment: []DepartmentCount{},
	}

	index := make(map[string]int)
	for _, e := range records {
		if e.Status == StatusActive {
			stats.Active++
		}
		i, ok := index[e.Department]
		if !ok {
			i = len(stats.ByDepartment)
			index[e.Department] = i
			stats.ByDepartment = append(stats.ByDepartment, DepartmentCount{Department: e.Department})
		}
		stats.ByDepartment[i].Count++
	}
	stats.Departments = len(stats.ByDepartment)
	return stats
}

// Largest returns the department with the highest headcount, or false for
// an empty set. Ties go to the department listed first.
func (s DirectoryStats) Largest() (DepartmentCount, bool) {
	if len(s.ByDepartment) == 0 {
		return DepartmentCount{}, false
	}
	best := s.ByDepartment[0]
	for _, d := range s.ByDepartment[1:] {
		if d.Count > best.Count {
			best = d
		}
	}
	return best, true
}
