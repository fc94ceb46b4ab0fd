// Command client is a CLI driver for the TCP transport (spec §6.1): submit,
// cancel, snapshot, bbo and trades actions against a running server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kryptic-exchange/matchcore/internal/domain"
	"github.com/kryptic-exchange/matchcore/internal/transport"
)

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9001", "address of the matching engine server")
	owner := flag.String("owner", "", "owner username (required for 'submit')")
	action := flag.String("action", "submit", "action to perform: submit|cancel|snapshot|bbo|trades")

	symbol := flag.String("symbol", "BTC-USDT", "trading symbol")
	sideStr := flag.String("side", "buy", "order side: 'buy' or 'sell'")
	typeStr := flag.String("type", "limit", "order type: limit|market|ioc|fok")
	price := flag.String("price", "", "limit price (required unless -type=market)")
	qtyStr := flag.String("qty", "1", "order quantity")

	orderID := flag.String("order-id", "", "order id (required for 'cancel')")
	depth := flag.Int("depth", 10, "book depth for 'snapshot'")
	limit := flag.Int("limit", 20, "max trades for 'trades'")

	flag.Parse()

	if *owner == "" && strings.ToLower(*action) == "submit" {
		fmt.Println("Error: -owner is required for 'submit'.")
		flag.Usage()
		os.Exit(1)
	}

	conn, err := transport.Dial(*serverAddr)
	if err != nil {
		log.Fatalf("Failed to connect to server at %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("Connected to %s\n", *serverAddr)

	switch strings.ToLower(*action) {
	case "submit":
		runSubmit(conn, *symbol, *sideStr, *typeStr, *price, *qtyStr, *owner)
	case "cancel":
		if *orderID == "" {
			log.Fatal("Error: -order-id is required for 'cancel'")
		}
		runCancel(conn, *symbol, *orderID)
	case "snapshot":
		runSnapshot(conn, *symbol, *depth)
	case "bbo":
		runBBO(conn, *symbol)
	case "trades":
		runRecentTrades(conn, *symbol, *limit)
	default:
		log.Fatalf("Unknown action: %s", *action)
	}
}

func parseSide(s string) domain.Side {
	if strings.ToLower(s) == "sell" {
		return domain.Sell
	}
	return domain.Buy
}

func parseOrderType(s string) domain.OrderType {
	switch strings.ToLower(s) {
	case "market":
		return domain.Market
	case "ioc":
		return domain.IOC
	case "fok":
		return domain.FOK
	default:
		return domain.Limit
	}
}

func runSubmit(conn *transport.Client, symbol, sideStr, typeStr, priceStr, qtyStr, owner string) {
	orderType := parseOrderType(typeStr)
	qty, err := decimal.NewFromString(qtyStr)
	if err != nil {
		log.Fatalf("invalid -qty %q: %v", qtyStr, err)
	}

	req := domain.SubmitRequest{
		Symbol:    symbol,
		Side:      parseSide(sideStr),
		OrderType: orderType,
		Quantity:  qty,
		Owner:     owner,
	}
	if orderType.RequiresPrice() {
		if priceStr == "" {
			log.Fatalf("-price is required for order type %s", orderType)
		}
		p, err := decimal.NewFromString(priceStr)
		if err != nil {
			log.Fatalf("invalid -price %q: %v", priceStr, err)
		}
		req.Price = p
		req.HasPrice = true
	}

	result, err := conn.Submit(req)
	if err != nil {
		log.Fatalf("submit failed: %v", err)
	}
	fmt.Printf("-> order %s status=%s filled=%s remaining=%s\n",
		result.OrderID, result.Status, result.FilledQuantity, result.RemainingQuantity)
	for _, t := range result.Trades {
		fmt.Printf("   trade %s price=%s qty=%s maker=%s taker=%s\n",
			t.TradeID, t.Price, t.Quantity, t.MakerOrderID, t.TakerOrderID)
	}
}

func runCancel(conn *transport.Client, symbol, orderID string) {
	found, err := conn.Cancel(symbol, orderID)
	if err != nil {
		log.Fatalf("cancel failed: %v", err)
	}
	fmt.Printf("-> cancel %s found=%v\n", orderID, found)
}

func runSnapshot(conn *transport.Client, symbol string, depth int) {
	snap, err := conn.Snapshot(symbol, depth)
	if err != nil {
		log.Fatalf("snapshot failed: %v", err)
	}
	fmt.Printf("%s seq=%d\n", snap.Symbol, snap.SequenceNumber)
	fmt.Println("bids:")
	for _, l := range snap.Bids {
		fmt.Printf("  %s @ %s\n", l.Quantity, l.Price)
	}
	fmt.Println("asks:")
	for _, l := range snap.Asks {
		fmt.Printf("  %s @ %s\n", l.Quantity, l.Price)
	}
}

func runBBO(conn *transport.Client, symbol string) {
	bbo, err := conn.BBO(symbol)
	if err != nil {
		log.Fatalf("bbo failed: %v", err)
	}
	if bbo.HasBid {
		fmt.Printf("bid: %s @ %s\n", bbo.BestBidQty, bbo.BestBid)
	} else {
		fmt.Println("bid: none")
	}
	if bbo.HasAsk {
		fmt.Printf("ask: %s @ %s\n", bbo.BestAskQty, bbo.BestAsk)
	} else {
		fmt.Println("ask: none")
	}
}

func runRecentTrades(conn *transport.Client, symbol string, limit int) {
	trades, err := conn.RecentTrades(symbol, limit)
	if err != nil {
		log.Fatalf("recent trades failed: %v", err)
	}
	for _, t := range trades {
		fmt.Printf("%s price=%s qty=%s aggressor=%s seq=%d\n",
			t.TradeID, t.Price, t.Quantity, t.AggressorSide, t.SequenceNumber)
	}
}
