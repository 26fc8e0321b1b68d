package storage

import "time"

// SampleData returns a small catalog for local development and tests. It
// includes inactive rows so the active filters have something to drop.
func SampleData() *Dataset {
	joined := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	return &Dataset{
		Locations: []Location{
			{ID: 1, Name: "Nairobi", Type: "city", Latitude: -1.286389, Longitude: 36.817223, IsActive: true},
			{ID: 2, Name: "Mombasa", Type: "city", Latitude: -4.043477, Longitude: 39.668206, IsActive: true},
			{ID: 3, Name: "Kisumu", Type: "city", Latitude: -0.091702, Longitude: 34.767956, IsActive: true},
			{ID: 4, Name: "Coast", Type: "region", Latitude: -3.2, Longitude: 39.8, IsActive: true},
			{ID: 5, Name: "Eldoret", Type: "city", Latitude: 0.514277, Longitude: 35.269779, IsActive: false},
		},
		Categories: []Category{
			{ID: 1, Name: "Electronics", Slug: "electronics", Description: "Phones, laptops and gadgets", Icon: "cpu", SortOrder: 1, IsActive: true},
			{ID: 2, Name: "Vehicles", Slug: "vehicles", Description: "Cars, motorbikes and parts", Icon: "car", SortOrder: 2, IsActive: true},
			{ID: 3, Name: "Home & Garden", Slug: "home-garden", Icon: "home", SortOrder: 3, IsActive: true},
			{ID: 4, Name: "Fashion", Slug: "fashion", Icon: "shirt", SortOrder: 4, IsActive: true},
			{ID: 5, Name: "Legacy", Slug: "legacy", SortOrder: 0, IsActive: false},
		},
		Conditions: []Condition{
			{ID: 1, Name: "New", Description: "Unused, in original packaging", SortOrder: 1, IsActive: true},
			{ID: 2, Name: "Like new", Description: "Used briefly, no visible wear", SortOrder: 2, IsActive: true},
			{ID: 3, Name: "Used", Description: "Normal signs of use", SortOrder: 3, IsActive: true},
			{ID: 4, Name: "For parts", Description: "Not working", SortOrder: 4, IsActive: false},
		},
		Users: []User{
			{ID: 1, Username: "amina", Email: "amina@example.com", FirstName: "Amina", LastName: "Otieno", Location: "Nairobi", EmailVerified: true, Status: UserStatusActive, CreatedAt: joined},
			{ID: 2, Username: "brian", Email: "brian@example.com", FirstName: "Brian", LastName: "Mwangi", Location: "Mombasa", Status: UserStatusActive, CreatedAt: joined.Add(24 * time.Hour)},
			{ID: 3, Username: "chebet", Email: "chebet@example.com", Status: "suspended", CreatedAt: joined.Add(48 * time.Hour)},
			{ID: 4, Username: "dan", Email: "dan@example.com", Status: UserStatusActive, CreatedAt: joined.Add(72 * time.Hour)},
		},
	}
}
