package catalog

import (
	"fmt"
	"net/url"

	formcodec "github.com/go-playground/form/v4"
)

type Product struct {
	Codigo     int      `json:"codigo"`
	Nombre     string   `json:"nombre"`
	Precio     float64  `json:"precio"`
	Venta      float64  `json:"venta"`
	Ruta       string   `json:"ruta"`
	Imagenes   []string `json:"imagenes"`
	Descuento  float64  `json:"descuento"`
	Categorias []string `json:"categorias"`
}

type ProductPage struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
}

// ProductFilter narrows a product listing. Zero values mean "no constraint".
type ProductFilter struct {
	Categoria string `json:"categoria,omitempty" form:"categoria"`
	Busqueda  string `json:"busqueda,omitempty"  form:"busqueda"`
	Limit     int    `json:"limit,omitempty"     form:"limit"`
	Offset    int    `json:"offset,omitempty"    form:"offset"`
}

func FilterFromValues(values url.Values) (ProductFilter, error) {
	filter := ProductFilter{}
	err := formcodec.NewDecoder().Decode(&filter, values)
	if err != nil {
		return filter, fmt.Errorf("error decoding filter: %s", err)
	}

	return filter, nil
}

func (f ProductFilter) ToValues() (url.Values, error) {
	values, err := formcodec.NewEncoder().Encode(f)
	if err != nil {
		return nil, fmt.Errorf("error encoding filter: %s", err)
	}

	return values, nil
}
