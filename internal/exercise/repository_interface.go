package exercise

import "context"

type Repository interface {
	List(ctx context.Context, f ListFilter) ([]Exercise, error)
	GetByID(ctx context.Context, id int) (*Exercise, error)
	GetByName(ctx context.Context, name string) (*Exercise, error)
}
