package ecs

import "errors"

var (
	ErrInvalidHandle     = errors.New("ecs: invalid entity handle")
	ErrNoSuchClass       = errors.New("ecs: no such entity class")
	ErrTooManyClasses    = errors.New("ecs: entity class limit reached")
	ErrTooManyComponents = errors.New("ecs: too many component types in class")
	ErrUnknownComponent  = errors.New("ecs: component type not stored here")
	ErrNotProxy          = errors.New("ecs: component is not proxy-stored")
)
