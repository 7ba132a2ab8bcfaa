package trade

// OrderKind distinguishes sales order subtypes
type OrderKind int

const (
	OrderKindStandard OrderKind = 0
	// OrderKindDSO is the distribution sales order that owns the revenue arrangement lines
	OrderKindDSO OrderKind = 1
	// OrderKindFSO is the fulfillment sales order shipped against a blanket order
	OrderKindFSO OrderKind = 2
)

// IsValid checks if the kind is known
func (k OrderKind) IsValid() bool {
	return k == OrderKindStandard || k == OrderKindDSO || k == OrderKindFSO
}

// OrderStatus represents the status of a sales order
type OrderStatus string

const (
	OrderStatusPendingApproval    OrderStatus = "PENDING_APPROVAL"
	OrderStatusPendingFulfillment OrderStatus = "PENDING_FULFILLMENT"
	OrderStatusPartiallyFulfilled OrderStatus = "PARTIALLY_FULFILLED"
	OrderStatusPendingBilling     OrderStatus = "PENDING_BILLING"
	OrderStatusBilled             OrderStatus = "BILLED"
	OrderStatusClosed             OrderStatus = "CLOSED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPendingApproval, OrderStatusPendingFulfillment, OrderStatusPartiallyFulfilled,
		OrderStatusPendingBilling, OrderStatusBilled, OrderStatusClosed:
		return true
	}
	return false
}

// ReturnType distinguishes deal returns from fulfillment returns
type ReturnType int

const (
	ReturnTypeDeal        ReturnType = 1
	ReturnTypeFulfillment ReturnType = 2
)

// String returns the display label of the return type
func (t ReturnType) String() string {
	switch t {
	case ReturnTypeDeal:
		return "Deal Return Authorization"
	case ReturnTypeFulfillment:
		return "Fulfillment Return Authorization"
	}
	return "Unknown"
}

// ReturnStatus represents the status of a return authorization
type ReturnStatus string

const (
	ReturnStatusPendingApproval   ReturnStatus = "PENDING_APPROVAL"
	ReturnStatusPendingReceipt    ReturnStatus = "PENDING_RECEIPT"
	ReturnStatusPartiallyReceived ReturnStatus = "PARTIALLY_RECEIVED"
	ReturnStatusPendingRefund     ReturnStatus = "PENDING_REFUND"
	ReturnStatusRefunded          ReturnStatus = "REFUNDED"
	ReturnStatusClosed            ReturnStatus = "CLOSED"
)

// SourceType is the type of the transaction a record was created from
type SourceType string

const (
	SourceTransferOrder       SourceType = "TRANSFER_ORDER"
	SourceItemReceipt         SourceType = "ITEM_RECEIPT"
	SourcePurchaseOrder       SourceType = "PURCHASE_ORDER"
	SourceReturnAuthorization SourceType = "RETURN_AUTHORIZATION"
	SourceSalesOrder          SourceType = "SALES_ORDER"
)

// ItemType classifies a transaction line's item
type ItemType string

const (
	ItemTypeInventory    ItemType = "INVENTORY"
	ItemTypeNonInventory ItemType = "NON_INVENTORY"
	ItemTypeKit          ItemType = "KIT"
	ItemTypeGroup        ItemType = "GROUP"
	ItemTypeService      ItemType = "SERVICE"
)

// ShipStatus is the shipping state of an item fulfillment
type ShipStatus string

const (
	ShipStatusPicked  ShipStatus = "PICKED"
	ShipStatusPacked  ShipStatus = "PACKED"
	ShipStatusShipped ShipStatus = "SHIPPED"
)
