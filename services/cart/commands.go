package cart

import (
	"context"
	"fmt"

	"github.com/centralshop/storebackend/lib/myerrors"
	"github.com/centralshop/storebackend/lib/mylog"
	"github.com/centralshop/storebackend/services/cart/cartevents"
	"github.com/centralshop/storebackend/services/catalog"
	"github.com/centralshop/storebackend/services/resilience"
)

// addItem merges an item into the owner's cart, creating the cart when no
// candidate matches. Absence of a cart is a creation trigger, not an error.
func (s *service) addItem(c context.Context, ownerToken string, account string, cartCode int, item Item) (CartMutationResult, error) {
	if item.Codigo <= 0 || item.Cantidad <= 0 {
		return CartMutationResult{
			Success: false,
			Message: "Producto no válido",
		}, nil
	}

	existing, found, err := s.cartStore.findForOwner(c, ownerToken, account, cartCode)
	if err != nil {
		return CartMutationResult{}, myerrors.NewInternalError(fmt.Errorf("error locating cart: %s", err))
	}

	if !found {
		created, err := s.createCart(c, ownerToken, account, item)
		if err != nil {
			return CartMutationResult{}, err
		}

		return CartMutationResult{
			Success: true,
			Message: "CARRITO CREADO CON ÉXITO",
			Carts:   []Cart{created},
		}, nil
	}

	unlock := s.locks.lock(existing.Codigo)
	defer unlock()

	var updated Cart
	err = s.cartStore.runInTransaction(c, func(c context.Context) error {
		crt, stillThere, err := s.cartStore.getByCode(c, existing.Codigo)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error re-reading cart %d: %s", existing.Codigo, err))
		}
		if !stillThere {
			return myerrors.NewNotFoundError(fmt.Errorf("cart %d disappeared", existing.Codigo))
		}

		if crt.Proceso != "" {
			s.reconcileStaleProceso(c, &crt)
		}

		mergeItem(&crt.Articulos, item)

		updated = crt
		return s.cartStore.put(c, crt)
	})
	if err != nil {
		return CartMutationResult{}, err
	}

	s.logger.Log(c, fmt.Sprintf("%d", updated.Codigo), mylog.SeverityInfo, "Added product %d (x%d) to cart %d", item.Codigo, item.Cantidad, updated.Codigo)

	return CartMutationResult{
		Success: true,
		Message: "PRODUCTO AGREGADO AL CARRITO",
		Carts:   []Cart{updated},
	}, nil
}

func (s *service) createCart(c context.Context, ownerToken string, account string, item Item) (Cart, error) {
	newCode, err := s.sequence.Next(c, sequenceName)
	if err != nil {
		return Cart{}, myerrors.NewInternalError(fmt.Errorf("error allocating cart code: %s", err))
	}

	crt := Cart{
		Codigo: int(newCode),
		Cliente: Cliente{
			Equipo: ownerToken,
			Correo: account,
		},
		Estado:    estadoActivo,
		CreatedAt: s.nower.Now(),
	}
	if item.CantidadCuotas > 0 {
		crt.Articulos.Credito = []Item{item}
	} else {
		crt.Articulos.Contado = []Item{item}
	}

	err = s.cartStore.runInTransaction(c, func(c context.Context) error {
		err := s.cartStore.put(c, crt)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing cart %d: %s", crt.Codigo, err))
		}

		err = s.publisher.Publish(c, cartevents.TopicName, cartevents.CartCreated{CartCode: crt.Codigo})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing cart creation: %s", err))
		}

		return nil
	})
	if err != nil {
		return Cart{}, err
	}

	s.logger.Log(c, fmt.Sprintf("%d", crt.Codigo), mylog.SeverityInfo, "Created cart %d for owner %s", crt.Codigo, ownerToken)

	return crt, nil
}

// reconcileStaleProceso clears a leftover in-flight checkout marker and
// deactivates the pending payment that went with it. The reconciliation is
// best effort: the cart must stay usable even when payments is down.
func (s *service) reconcileStaleProceso(c context.Context, crt *Cart) {
	s.logger.Log(c, fmt.Sprintf("%d", crt.Codigo), mylog.SeverityWarn, "Cart %d was left mid-checkout, reconciling", crt.Codigo)

	err := s.paymentsClient.MarkSuperseded(c, crt.Codigo)
	if err != nil {
		s.logger.Log(c, fmt.Sprintf("%d", crt.Codigo), mylog.SeverityWarn, "Failed to supersede pending payment of cart %d: %s", crt.Codigo, err)
	}

	crt.Proceso = ""
}

// mergeItem is the merge-or-append rule: cash items match on product code,
// credit items on product code plus installment count.
func mergeItem(articulos *Articulos, item Item) {
	if item.CantidadCuotas > 0 {
		for i, existing := range articulos.Credito {
			if existing.Codigo == item.Codigo && existing.CantidadCuotas == item.CantidadCuotas {
				articulos.Credito[i].Cantidad += item.Cantidad
				return
			}
		}
		articulos.Credito = append(articulos.Credito, item)
		return
	}

	for i, existing := range articulos.Contado {
		if existing.Codigo == item.Codigo {
			articulos.Contado[i].Cantidad += item.Cantidad
			return
		}
	}
	articulos.Contado = append(articulos.Contado, item)
}

// getCart returns the owner's cart with items enriched from the catalog.
// Enrichment failure degrades the message, never the call.
func (s *service) getCart(c context.Context, ownerToken string, account string, cartCode int) (CartMutationResult, error) {
	crt, found, err := s.cartStore.findForOwner(c, ownerToken, account, cartCode)
	if err != nil {
		return CartMutationResult{}, myerrors.NewInternalError(fmt.Errorf("error locating cart: %s", err))
	}
	if !found {
		return CartMutationResult{
			Success: false,
			Message: "Carrito no encontrado",
		}, nil
	}

	message := "Carrito recuperado"
	err = s.enrichItems(c, &crt)
	if err != nil {
		s.logger.Log(c, fmt.Sprintf("%d", crt.Codigo), mylog.SeverityWarn, "Could not enrich cart %d: %s", crt.Codigo, err)
		message = "Carrito recuperado (sin información adicional de productos)"
	}

	return CartMutationResult{
		Success: true,
		Message: message,
		Carts:   []Cart{crt},
	}, nil
}

func (s *service) enrichItems(c context.Context, crt *Cart) error {
	seen := map[int]bool{}
	codes := []int{}
	for _, item := range append(append([]Item{}, crt.Articulos.Contado...), crt.Articulos.Credito...) {
		if !seen[item.Codigo] {
			seen[item.Codigo] = true
			codes = append(codes, item.Codigo)
		}
	}
	if len(codes) == 0 {
		return nil
	}

	products, err := resilience.Do(c, s.invoker, "fetch_product_details", func(c context.Context) ([]catalog.Product, error) {
		return s.catalogClient.GetProductsByCodes(c, codes, []string{"codigo", "nombre", "categorias"})
	}, s.invokeOptions, nil)
	if err != nil {
		return err
	}

	byCode := map[int]catalog.Product{}
	for _, p := range products {
		byCode[p.Codigo] = p
	}

	enrich := func(items []Item) {
		for i, item := range items {
			p, known := byCode[item.Codigo]
			if !known {
				continue
			}
			if items[i].Nombre == "" {
				items[i].Nombre = p.Nombre
			}
			if len(p.Categorias) > 0 {
				items[i].Categoria = p.Categorias[0]
			}
		}
	}
	enrich(crt.Articulos.Contado)
	enrich(crt.Articulos.Credito)

	return nil
}
