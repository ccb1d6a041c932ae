package core

// SeedRecords returns the fixed set of employees a fresh directory starts with.
// All of them started today.
func SeedRecords(today string) []FullEmployeeRecord {
	seed := func(id, name, email, dept, role string, status Status) FullEmployeeRecord {
		return FullEmployeeRecord{
			ID: id,
			NewEmployeeInput: NewEmployeeInput{
				Name:       name,
				Email:      email,
				Department: dept,
				Role:       role,
				Status:     status,
				StartDate:  today,
			},
		}
	}
	return []FullEmployeeRecord{
		seed("emp_1", "Alice Johnson", "alice@company.com", "Engineering", "Engineer", StatusActive),
		seed("emp_2", "Brian Lee", "brian@company.com", "Design", "Designer", StatusActive),
		seed("emp_3", "Carmen Diaz", "carmen@company.com", "Sales", "Manager", StatusInactive),
	}
}

// Seed loads SeedRecords into the store and returns how many were stored.
func (s *Store) Seed() int {
	today := s.clock.Now().Format(DateLayout)
	records := SeedRecords(today)
	for _, rec := range records {
		s.Upsert(rec)
	}
	return len(records)
}
