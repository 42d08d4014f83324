package types

import "errors"

// Move and resolution failures. Every failure leaves the game state untouched.
var (
	ErrGameNotInProgress      = errors.New("game not in progress")
	ErrInvalidParentIndex     = errors.New("invalid parent index")
	ErrGameExpired            = errors.New("game expired")
	ErrMaxDepthReached        = errors.New("max depth reached")
	ErrInsufficientBond       = errors.New("insufficient bond")
	ErrClockExpired           = errors.New("clock expired")
	ErrNotAtExecutionDepth    = errors.New("claim not at execution depth")
	ErrCannotResolveYet       = errors.New("cannot resolve yet")
	ErrBondTransferFailed     = errors.New("bond transfer failed")
	ErrSubGameAlreadyResolved = errors.New("sub-game already resolved")
	ErrAlreadyInitialized     = errors.New("game already initialized")
	ErrNoClaims               = errors.New("game has no claims")
	ErrNotFactory             = errors.New("caller is not the game factory")
	ErrInvalidExtraData       = errors.New("invalid extra data")
	ErrInvalidStateData       = errors.New("invalid state data")
	ErrInvalidPosition        = errors.New("invalid position")
)

// Factory failures.
var (
	ErrInvalidImplementation  = errors.New("invalid implementation")
	ErrGameTypeNotInitialized = errors.New("game type not initialized")
	ErrOffsetOutOfBounds      = errors.New("offset out of bounds")
	ErrNotOwner               = errors.New("caller is not the owner")
	ErrInvalidGameType        = errors.New("invalid game type")
	ErrUnknownGame            = errors.New("unknown game")
)
