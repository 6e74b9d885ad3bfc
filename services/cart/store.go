package cart

import (
	"context"
	"strconv"

	"github.com/centralshop/storebackend/lib/mystore"
)

// cartStore adds the owner lookup on top of the generic store. The owner
// filter is an or over device token and account email, which the store's
// and-only filters cannot express, so both queries run and get merged.
type cartStore struct {
	store mystore.Store[Cart]
}

func (cs cartStore) put(c context.Context, crt Cart) error {
	return cs.store.Put(c, strconv.Itoa(crt.Codigo), crt)
}

func (cs cartStore) getByCode(c context.Context, cartCode int) (Cart, bool, error) {
	return cs.store.Get(c, strconv.Itoa(cartCode))
}

func (cs cartStore) runInTransaction(c context.Context, f func(c context.Context) error) error {
	return cs.store.RunInTransaction(c, f)
}

// findForOwner locates the candidate cart for an owner. cartCode 0 narrows
// to the active cart, a nonzero code to exactly that cart regardless of
// state. When several carts match, the highest code wins.
func (cs cartStore) findForOwner(c context.Context, ownerToken string, account string, cartCode int) (Cart, bool, error) {
	extra := mystore.Filter{Field: "Estado", Compare: "=", Value: estadoActivo}
	if cartCode != 0 {
		extra = mystore.Filter{Field: "Codigo", Compare: "=", Value: cartCode}
	}

	identityFilters := []mystore.Filter{
		{Field: "Cliente.Equipo", Compare: "=", Value: ownerToken},
	}
	if account != "" {
		identityFilters = append(identityFilters, mystore.Filter{Field: "Cliente.Correo", Compare: "=", Value: account})
	}

	var best Cart
	found := false
	for _, identity := range identityFilters {
		carts, err := cs.store.Query(c, []mystore.Filter{identity, extra}, "-Codigo")
		if err != nil {
			return Cart{}, false, err
		}
		if len(carts) > 0 && (!found || carts[0].Codigo > best.Codigo) {
			best = carts[0]
			found = true
		}
	}

	return best, found, nil
}
