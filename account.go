package payments

// Account is the state of a client account.
//
// Total is always Available + Held. Once Locked, an account rejects deposits
// and withdrawals forever.
type Account struct {
	Client    ClientID
	Available Amount
	Held      Amount
	Locked    bool
}

// NewAccount returns an empty, unlocked account.
func NewAccount(client ClientID) Account {
	return Account{Client: client}
}

// Total returns Available + Held.
//
// Operations keep the total in range, so the error is dropped.
func (a Account) Total() Amount {
	t, _ := a.Available.Add(a.Held)
	return t
}

// The methods below return the next state of the account and never modify the
// receiver, so that a failed operation leaves nothing half applied.

// credit adds amount to the available funds.
func (a Account) credit(amount Amount) (Account, error) {
	var err error
	if a.Available, err = a.Available.Add(amount); err != nil {
		return a, err
	}
	return a, a.checkTotal()
}

// debit removes amount from the available funds.
func (a Account) debit(amount Amount) (Account, error) {
	if a.Available.LessThan(amount) {
		return a, ErrInsufficientFunds
	}
	var err error
	a.Available, err = a.Available.Sub(amount)
	return a, err
}

// hold moves amount from available to held. Available may go negative.
func (a Account) hold(amount Amount) (Account, error) {
	var err error
	if a.Available, err = a.Available.Sub(amount); err != nil {
		return a, err
	}
	if a.Held, err = a.Held.Add(amount); err != nil {
		return a, err
	}
	return a, nil
}

// release moves amount from held back to available.
func (a Account) release(amount Amount) (Account, error) {
	var err error
	if a.Held, err = a.Held.Sub(amount); err != nil {
		return a, err
	}
	if a.Available, err = a.Available.Add(amount); err != nil {
		return a, err
	}
	return a, nil
}

// chargeback removes amount from held funds and locks the account.
func (a Account) chargeback(amount Amount) (Account, error) {
	var err error
	if a.Held, err = a.Held.Sub(amount); err != nil {
		return a, err
	}
	a.Locked = true
	return a, a.checkTotal()
}

func (a Account) checkTotal() error {
	_, err := a.Available.Add(a.Held)
	return err
}

// MarshalJSON implements the json.Marshaler interface for Account.
func (a Account) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("client", a.Client)
	w.Append("available", a.Available)
	w.Append("held", a.Held)
	w.Append("total", a.Total())
	w.Append("locked", a.Locked)
	return w.MarshalJSON()
}
