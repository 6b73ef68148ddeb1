package model

import "time"

// Genre is a row in the `genres` table.  IDs are fixed by the catalog
// rather than generated so that the catalog file can reference them.
type Genre struct {
	ID   int64  // genres.id
	Name string // genres.name
}

// Movie represents a film currently screening in one auditorium.
// StudioNumber is unique: one movie per auditorium at a time.  The
// studio number also decides the screening cadence (see package
// schedule).
//
// Fields:
//  ID           – primary key identifier.
//  Title        – display title.
//  StudioNumber – auditorium the movie plays in (unique).
//  Description  – optional synopsis.
//  PosterPath   – optional poster image path.
//  BackdropPath – optional backdrop image path.
//  ReleaseDate  – optional original release date.
//  Genres       – zero or more genres (movie_genres join table).
//  CreatedAt    – timestamp when the movie was created.
type Movie struct {
	ID           int64      // movies.id
	Title        string     // movies.title
	StudioNumber int        // movies.studio_number
	Description  string     // movies.description
	PosterPath   string     // movies.poster_path
	BackdropPath string     // movies.backdrop_path
	ReleaseDate  *time.Time // movies.release_date (nullable)
	Genres       []Genre    // movie_genres -> genres
	CreatedAt    time.Time  // movies.created_at
}
