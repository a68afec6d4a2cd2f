package battle

import "errors"

var (
	ErrNilTeam         = errors.New("team is nil")
	ErrEmptyChallenger = errors.New("challenger team has no fighters")
	ErrMissingTemplate = errors.New("missing stat template")
	ErrInvalidSlot     = errors.New("team slot must be between 1 and 6")
	ErrInvalidLevel    = errors.New("level must be at least 1")
	ErrUnknownElement  = errors.New("unknown element")
	ErrUnknownTier     = errors.New("unknown tier")
	ErrUnknownTrigger  = errors.New("unknown spell trigger")
	ErrInvalidSpell    = errors.New("spell mana cost must not be negative and chance must be within [0, 1]")
)
