package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/model"
)

// PrintRequest is the document sent to the ticket printer gateway, which
// drives the ESC/POS hardware. Amounts are formatted in major units so the
// gateway renders them verbatim.
type PrintRequest struct {
	DocumentType    string `json:"document_type"` // always "z_report"
	ReportNumber    int64  `json:"report_number"`
	ReportDate      string `json:"report_date"`
	OpeningBalance  string `json:"opening_balance"`
	ClosingBalance  string `json:"closing_balance"`
	ExpectedBalance string `json:"expected_balance"`
	Difference      string `json:"difference"`
	TotalSales      string `json:"total_sales"`
	TotalCash       string `json:"total_cash"`
	TotalCard       string `json:"total_card"`
	TotalOther      string `json:"total_other"`
	TotalIn         string `json:"total_in"`
	TotalOut        string `json:"total_out"`
	SalesCount      int    `json:"sales_count"`
}

// PrinterClient is an HTTP client that delegates ticket printing to the
// printer gateway service. Print failures never affect the close flow, which
// has already committed by the time a job reaches the gateway.
type PrinterClient struct {
	gatewayURL string
	httpClient *http.Client
}

func NewPrinterClient(gatewayURL string) *PrinterClient {
	return &PrinterClient{
		gatewayURL: gatewayURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// PrintZReport sends a POST to the printer gateway with the report contents.
func (c *PrinterClient) PrintZReport(ctx context.Context, report *model.ZReport) error {
	payload := PrintRequest{
		DocumentType:    "z_report",
		ReportNumber:    report.ReportNumber,
		ReportDate:      report.ReportDate.Format("2006-01-02"),
		OpeningBalance:  major(report.OpeningBalance),
		ClosingBalance:  major(report.ClosingBalance),
		ExpectedBalance: major(report.ExpectedBalance),
		Difference:      major(report.Difference),
		TotalSales:      major(report.TotalSales),
		TotalCash:       major(report.TotalCash),
		TotalCard:       major(report.TotalCard),
		TotalOther:      major(report.TotalOther),
		TotalIn:         major(report.TotalIn),
		TotalOut:        major(report.TotalOut),
		SalesCount:      report.SalesCount,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("printer: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL+"/print", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("printer: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("printer: gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("printer: gateway returned %d", resp.StatusCode)
	}
	return nil
}

func major(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
