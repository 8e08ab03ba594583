// Command matchctl is a CLI client for matchengine: it places, cancels,
// and modifies orders over matchproto's binary protocol and prints trade
// and error reports as they arrive. Adapted from the teacher's
// cmd/client/client.go — flag-driven action dispatch, a background report
// reader goroutine, the connection kept alive afterward to keep receiving
// reports — retargeted at matchproto's wire format instead of the
// teacher's ad hoc username-suffixed messages.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"

	"github.com/raventid/matchcore/internal/matchcore"
	"github.com/raventid/matchcore/internal/matchproto"
)

func main() {
	serverAddr := flag.String("server", "127.0.0.1:7000", "address of the matchengine server")
	action := flag.String("action", "place", "action to perform: place, cancel, modify")

	orderID := flag.Uint64("id", 0, "order id")
	side := flag.String("side", "buy", "buy or sell")
	orderType := flag.String("type", "gtc", "gtc or fak")
	price := flag.Int64("price", 0, "limit price in ticks")
	quantity := flag.Uint64("qty", 0, "order quantity")
	flag.Parse()

	if *orderID == 0 {
		fmt.Println("Error: -id is required")
		flag.Usage()
		os.Exit(1)
	}

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("connected to %s\n", *serverAddr)

	go readReports(conn)

	var payload []byte
	switch *action {
	case "place":
		payload = matchproto.NewOrderMessage{
			OrderID:  matchcore.OrderID(*orderID),
			Side:     parseSide(*side),
			Type:     parseType(*orderType),
			Price:    matchcore.Price(*price),
			Quantity: matchcore.Quantity(*quantity),
		}.Encode()

	case "cancel":
		payload = matchproto.CancelOrderMessage{OrderID: matchcore.OrderID(*orderID)}.Encode()

	case "modify":
		payload = matchproto.ModifyOrderMessage{
			OrderID:  matchcore.OrderID(*orderID),
			Side:     parseSide(*side),
			Price:    matchcore.Price(*price),
			Quantity: matchcore.Quantity(*quantity),
		}.Encode()

	default:
		log.Fatalf("unknown action: %s", *action)
	}

	if _, err := conn.Write(payload); err != nil {
		log.Fatalf("failed to send request: %v", err)
	}
	fmt.Printf("-> sent %s for order %d\n", *action, *orderID)

	fmt.Println("listening for reports... (press Ctrl+C to exit)")
	select {}
}

func parseSide(s string) matchcore.Side {
	if s == "sell" {
		return matchcore.Sell
	}
	return matchcore.Buy
}

func parseType(s string) matchcore.OrderType {
	if s == "fak" {
		return matchcore.FAK
	}
	return matchcore.GTC
}

// readReports continuously reads and prints report frames from conn. Each
// frame is read in one Read call since matchserver writes one frame per
// Write; this mirrors the fixed-size framing matchproto already assumes on
// the request side.
func readReports(conn net.Conn) {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if err != io.EOF {
				log.Printf("connection lost: %v", err)
			}
			os.Exit(0)
		}

		report, err := matchproto.DecodeReport(buf[:n])
		if err != nil {
			log.Printf("malformed report: %v", err)
			continue
		}

		switch r := report.(type) {
		case matchproto.TradeReport:
			fmt.Printf("\n[TRADE] bid order %d @ %d x%d  vs  ask order %d @ %d x%d\n",
				r.Bid.OrderID, r.Bid.Price, r.Bid.Quantity, r.Ask.OrderID, r.Ask.Price, r.Ask.Quantity)
		case matchproto.ErrorReport:
			fmt.Printf("\n[ERROR] %s\n", r.Message)
		}
	}
}
