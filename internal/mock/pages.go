package mock

import (
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"
)

// IndexJSON renders the stock-watch document. Figures are strings, as on the
// live site.
func IndexJSON(m Market) []byte {
	type latest struct {
		IndexName string `json:"indexName"`
		MCls      string `json:"mCls"`
	}
	type row struct {
		Symbol string `json:"symbol"`
		MPC    string `json:"mPC"`
		LtP    string `json:"ltP"`
	}
	doc := struct {
		LatestData []latest `json:"latestData"`
		Data       []row    `json:"data"`
	}{
		LatestData: []latest{{IndexName: m.IndexName, MCls: fmt.Sprintf("%.2f", m.IndexLastClose)}},
	}
	for _, s := range m.Stocks {
		doc.Data = append(doc.Data, row{
			Symbol: s.Symbol,
			MPC:    fmt.Sprintf("%.2f", s.PercentChange),
			LtP:    grouped(s.Underlying, 2),
		})
	}
	b, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return b
}

// HistoryHTML renders the price-history table of s, one row per close.
func HistoryHTML(s Stock) []byte {
	var b strings.Builder
	b.WriteString("<html><body><table>\n")
	b.WriteString("<tr><th>Date</th><th>Symbol</th><th>Series</th><th>Open Price</th><th>High Price</th>" +
		"<th>Low Price</th><th>Last Traded Price</th><th>Close Price</th><th>Total Traded Quantity</th>" +
		"<th>Turnover (in Lakhs)</th><th>No. of Trades</th></tr>\n")
	for i, c := range s.History {
		fmt.Fprintf(&b, "<tr><td>%02d-Oct-2026</td><td>%s</td><td>EQ</td><td>%s</td><td>%s</td><td>%s</td>"+
			"<td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%d</td></tr>\n",
			i+1, html.EscapeString(s.Symbol),
			grouped(c*0.995, 2), grouped(c*1.01, 2), grouped(c*0.99, 2),
			grouped(c, 2), grouped(c, 2), grouped(1250000, 0), grouped(c*125, 2), 40000+i)
	}
	b.WriteString("</table></body></html>\n")
	return []byte(b.String())
}

// OptionChainHTML renders the option-chain page of s with the strike column
// flanked by mirrored call and put columns.
func OptionChainHTML(s Stock) []byte {
	var b strings.Builder
	b.WriteString("<html><body>\n")
	fmt.Fprintf(&b, "<table><tr><td><b>Underlying Stock: %s %s</b></td></tr></table>\n",
		html.EscapeString(s.Symbol), grouped(s.Underlying, 2))
	fmt.Fprintf(&b, "<table id=%q>\n<thead>\n", OptionTableID)
	b.WriteString("<tr><th colspan=\"11\">CALLS</th><th>&nbsp;</th><th colspan=\"11\">PUTS</th></tr>\n")
	b.WriteString("<tr><th>Chart</th><th>OI</th><th>Chng in OI</th><th>Volume</th><th>IV</th><th>LTP</th>" +
		"<th>Net Chng</th><th>Bid Qty</th><th>Bid Price</th><th>Ask Price</th><th>Ask Qty</th>" +
		"<th>Strike Price</th>" +
		"<th>Bid Qty</th><th>Bid Price</th><th>Ask Price</th><th>Ask Qty</th><th>Net Chng</th>" +
		"<th>LTP</th><th>IV</th><th>Volume</th><th>Chng in OI</th><th>OI</th><th>Chart</th></tr>\n")
	b.WriteString("</thead>\n")

	for _, r := range s.Chain {
		b.WriteString("<tr>")
		b.WriteString(`<td class="ylwbg"><a href="#">Chart</a></td>`)
		writeCells(&b, count(r.CallVolume*30), count(r.CallVolume*2), count(r.CallVolume), figure(r.CallIV))
		fmt.Fprintf(&b, `<td class="nobg"><a href="#">%s</a></td>`, figure(r.CallLTP))
		writeCells(&b, "0.15", count(900), figure(r.CallLTP*0.99), figure(r.CallLTP*1.01), count(900))
		fmt.Fprintf(&b, `<td class="grybg"><a href="#"><b>%s</b></a></td>`, strconv.FormatFloat(r.Strike, 'f', 2, 64))
		writeCells(&b, count(900), figure(r.PutLTP*0.99), figure(r.PutLTP*1.01), count(900), "-0.15")
		fmt.Fprintf(&b, `<td class="nobg"><a href="#">%s</a></td>`, figure(r.PutLTP))
		writeCells(&b, figure(r.PutIV), count(r.PutVolume), count(r.PutVolume*2), count(r.PutVolume*30))
		b.WriteString(`<td class="ylwbg"><a href="#">Chart</a></td>`)
		b.WriteString("</tr>\n")
	}
	b.WriteString(`<tr><td class="ylwbg">Total</td><td class="nobg">-</td><td class="nobg">-</td></tr>` + "\n")
	b.WriteString("</table></body></html>\n")
	return []byte(b.String())
}

// LotSizeHTML renders the lot-size table with m.Month and the month after it.
func LotSizeHTML(m Market) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "<html><body><table id=%q>\n", LotSizeTableID)
	fmt.Fprintf(&b, "<thead><tr><th>UNDERLYING</th><th>SYMBOL</th><th>%s</th><th>NEXT</th></tr></thead>\n",
		html.EscapeString(m.Month))
	b.WriteString("<tbody>\n")
	for _, s := range m.Stocks {
		if s.LotSize == 0 {
			continue
		}
		fmt.Fprintf(&b, "<tr><td>%s Ltd</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			html.EscapeString(s.Symbol), html.EscapeString(s.Symbol), grouped(float64(s.LotSize), 0), grouped(float64(s.LotSize), 0))
	}
	b.WriteString("</tbody></table></body></html>\n")
	return []byte(b.String())
}

func writeCells(b *strings.Builder, texts ...string) {
	for _, t := range texts {
		fmt.Fprintf(b, `<td class="nobg">%s</td>`, t)
	}
}

func figure(v float64) string {
	if v == 0 {
		return "-"
	}
	return grouped(v, 2)
}

func count(v int) string {
	if v == 0 {
		return "-"
	}
	return grouped(float64(v), 0)
}

// grouped formats v with comma thousands separators.
func grouped(v float64, decimals int) string {
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	var out []byte
	for i, c := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return sign + string(out) + frac
}
