package utils

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/skip2/go-qrcode"

	"ecoshop_back_end/internal/models"
)

// GenerateSepaQR encode un virement SEPA EPC069-12 et le retourne en data URI PNG.
func GenerateSepaQR(iban, bic, name, ref string, amount float64) (string, error) {
	sepa := fmt.Sprintf("BCD\n001\n1\nSCT\n%s\n%s\n%s\nEUR%.2f\n\n%s", bic, name, iban, amount, ref)

	png, err := qrcode.Encode(sepa, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// Invoice contient tout ce qui est imprimé sur une facture.
type Invoice struct {
	Order       *models.Order
	Customer    models.OrderOwner
	Beneficiary string
	IBAN        string
	IssuedAt    time.Time
	// QRCode est une data URI, vide si aucun IBAN n'est configuré.
	QRCode template.URL
}

var invoiceTemplate = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("₹%.2f", v) },
	"line":  func(i models.OrderItem) float64 { return i.Price * float64(i.Quantity) },
	"date":  func(t time.Time) string { return t.Format("Jan 2, 2006") },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Invoice {{.Order.ID}}</title>
<style>
body { font-family: Arial, sans-serif; color: #222; margin: 40px; }
table { width: 100%; border-collapse: collapse; margin: 24px 0; }
th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
th { background: #f0f0f0; }
.totals td { border: none; text-align: right; }
.qr { margin-top: 24px; }
</style>
</head>
<body>
<h1>EcoShop invoice</h1>
<p>Invoice for order <strong>{{.Order.ID}}</strong>, issued {{date .IssuedAt}}</p>
<p>Billed to: {{.Customer.Name}} &lt;{{.Customer.Email}}&gt;<br>
{{with .Order.ShippingInfo}}{{.Address}}, {{.City}}, {{.State}} {{.PinCode}}, {{.Country}}{{end}}</p>
<table>
<thead><tr><th>Product</th><th>Quantity</th><th>Unit price</th><th>Total</th></tr></thead>
<tbody>
{{range .Order.OrderItems}}<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{money .Price}}</td><td>{{money (line .)}}</td></tr>
{{end}}</tbody>
</table>
<table class="totals">
<tr><td>Items: {{money .Order.ItemsPrice}}</td></tr>
<tr><td>Tax: {{money .Order.TaxPrice}}</td></tr>
<tr><td>Shipping: {{money .Order.ShippingPrice}}</td></tr>
<tr><td><strong>Total: {{money .Order.TotalPrice}}</strong></td></tr>
</table>
<p>Payment {{.Order.PaymentInfo.ID}} ({{.Order.PaymentInfo.Status}}), paid {{date .Order.PaidAt}}</p>
{{if .QRCode}}<div class="qr"><p>Pay by bank transfer to {{.Beneficiary}} ({{.IBAN}})</p><img src="{{.QRCode}}" alt="SEPA QR code" width="180"></div>{{end}}
</body>
</html>`))

// RenderInvoiceHTML remplit le template de facture.
func RenderInvoiceHTML(inv *Invoice) (string, error) {
	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, inv); err != nil {
		return "", fmt.Errorf("render invoice: %w", err)
	}
	return buf.String(), nil
}

// PDFRenderer imprime des documents HTML en PDF.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// ChromePDFRenderer imprime via un Chrome headless piloté par chromedp.
type ChromePDFRenderer struct {
	Timeout time.Duration
}

func NewChromePDFRenderer() *ChromePDFRenderer {
	return &ChromePDFRenderer{Timeout: 30 * time.Second}
}

func (r *ChromePDFRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	ctx, cancelBrowser := chromedp.NewContext(ctx)
	defer cancelBrowser()

	var pdf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print invoice pdf: %w", err)
	}
	return pdf, nil
}
