package domain

import (
	"fmt"
	"time"
)

// Account is a custodial wallet holding a single non-negative balance.
type Account struct {
	ID        string
	Email     string
	Balance   Money
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateDebit checks that the balance covers amount.
func (a *Account) ValidateDebit(amount Money) error {
	if a.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	return nil
}

// ValidateCredit checks that the balance can absorb amount without
// exceeding MaxAmount.
func (a *Account) ValidateCredit(amount Money) error {
	if maxAmount.Sub(a.Balance).LessThan(amount) {
		return fmt.Errorf("%w: balance %s plus %s exceeds %s", ErrBalanceLimit, a.Balance, amount, MaxAmount)
	}
	return nil
}

// ApplyDebit returns the balance after removing amount.
func (a *Account) ApplyDebit(amount Money) Money {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns the balance after adding amount.
func (a *Account) ApplyCredit(amount Money) Money {
	return a.Balance.Add(amount)
}
