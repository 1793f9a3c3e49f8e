package domain

import "github.com/google/uuid"

type Movie struct {
	ID        uuid.UUID
	Title     string
	PosterUrl string
	Duration  int
}
