// Package mapping produces the field-to-column schema for a classified sheet.
//
// Two mappings are computed per sheet: a deterministic pattern baseline,
// which is always present and acts as the floor, and an optional AI mapping
// built from profiled column descriptions. The consensus merge reconciles
// them under a fixed disagreement policy, and hard guardrails apply to the
// result no matter which path produced it.
package mapping

import (
	"github.com/rkotak/bookimport/internal/entity"
	"github.com/rkotak/bookimport/internal/sheet"
)

// Schema maps an importable field name to the source column header that
// feeds it.
type Schema map[string]string

// fieldSynonyms lists, per type and field, the normalized header names the
// pattern matcher accepts. Earlier names are preferred when several columns
// match.
var fieldSynonyms = map[entity.ImportType]map[string][]string{
	entity.Inventory: {
		"name":           {"itemname", "productname", "item", "product", "particulars", "name"},
		"sku":            {"sku", "itemcode", "productcode", "code", "barcode"},
		"hsn_code":       {"hsncode", "hsn", "hsnsac"},
		"category":       {"category", "itemgroup", "group"},
		"unit":           {"unit", "uom", "units"},
		"purchase_price": {"purchaseprice", "costprice", "purchaserate", "buyprice"},
		"selling_price":  {"sellingprice", "saleprice", "salerate", "rate"},
		"mrp":            {"mrp", "maxretailprice"},
		"stock_quantity": {"stockquantity", "stockqty", "openingstock", "closingstock", "stock", "quantity", "qty"},
		"gst_rate":       {"gstrate", "taxrate", "taxpercent", "gst"},
		"description":    {"description", "remarks", "notes"},
	},
	entity.Customers: {
		"name":            {"customername", "partyname", "customer", "party", "buyer", "name"},
		"phone":           {"phone", "mobile", "phoneno", "mobileno", "contactno", "contact"},
		"email":           {"email", "emailid", "mail"},
		"address":         {"address", "billingaddress"},
		"gstin":           {"gstin", "gstno", "gstnumber"},
		"opening_balance": {"openingbalance", "outstanding", "balance"},
	},
	entity.Suppliers: {
		"name":            {"suppliername", "vendorname", "partyname", "supplier", "vendor", "party", "name"},
		"phone":           {"phone", "mobile", "phoneno", "mobileno", "contactno", "contact"},
		"email":           {"email", "emailid", "mail"},
		"address":         {"address"},
		"gstin":           {"gstin", "gstno", "gstnumber"},
		"opening_balance": {"openingbalance", "payable", "outstanding", "balance"},
	},
	entity.Sales: {
		"invoice_no":    {"invoiceno", "invoicenumber", "billno", "voucherno", "invoice"},
		"date":          {"invoicedate", "voucherdate", "billdate", "date"},
		"customer_name": {"customername", "partyname", "customer", "party", "buyer"},
		"sku":           {"sku", "itemcode", "productcode", "itemname", "item", "product"},
		"item_name":     {"itemname", "productname", "particulars"},
		"quantity":      {"quantity", "qty"},
		"unit_price":    {"unitprice", "rate", "price"},
		"amount":        {"netamount", "taxablevalue", "amount", "value"},
		"gst_amount":    {"gstamount", "taxamount", "igst", "cgst", "sgst"},
		"total_amount":  {"totalamount", "grandtotal", "invoicevalue", "total"},
		"payment_mode":  {"paymentmode", "paymenttype", "mode"},
	},
	entity.Expenses: {
		"date":         {"expensedate", "paymentdate", "date"},
		"category":     {"expensecategory", "expensehead", "category", "head"},
		"description":  {"description", "particulars", "narration", "remarks"},
		"amount":       {"expenseamount", "amount", "debit", "value"},
		"payment_mode": {"paymentmode", "paymenttype", "mode"},
		"paid_to":      {"paidto", "payee", "vendor"},
	},
}

// PatternMap is the deterministic baseline: loose case-insensitive name
// matching between expected field names and source headers. It is always
// computed first and is never discarded, even when an AI mapping exists.
func PatternMap(t entity.ImportType, headers []string) Schema {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = sheet.NormalizeHeader(h)
	}

	synonyms := fieldSynonyms[t]
	schema := make(Schema)
	for _, field := range t.Fields() {
		if col, ok := matchField(synonyms[field], headers, normalized); ok {
			schema[field] = col
		}
	}
	return schema
}

// matchField returns the first header matching the earliest synonym.
func matchField(names []string, headers, normalized []string) (string, bool) {
	for _, want := range names {
		for i, have := range normalized {
			if have == want {
				return headers[i], true
			}
		}
	}
	return "", false
}
