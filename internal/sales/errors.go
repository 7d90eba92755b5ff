package sales

import (
	"errors"
	"fmt"
)

// ErrNoLineItems: depois de filtrar itens inválidos não sobrou nenhum item
// e a venda não é cancelada.
var ErrNoLineItems = errors.New("uma venda (não cancelada) precisa ter pelo menos um item")

// ErrDuplicateItem: o mesmo produto aparece em mais de um item da venda.
var ErrDuplicateItem = errors.New("o mesmo produto não pode aparecer duas vezes na venda")

// InsufficientStockError: estoque atual menor que a quantidade pedida.
// Sempre aborta a operação inteira (nenhuma baixa parcial).
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("estoque insuficiente para o produto: %s", e.ProductName)
}
