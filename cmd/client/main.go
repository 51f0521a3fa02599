package main

import (
	"flag"
	"fmt"
	"log"
	"math/big"
	"net"
	"os"
	"strings"

	"github.com/google/uuid"

	"limitbook/internal/order"
	"limitbook/internal/wire"
)

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9001", "address of the matching engine")
	action := flag.String("action", "place", "action to perform: place, cancel, query")
	symbol := flag.String("symbol", "VOC", "traded symbol")
	sideStr := flag.String("side", "buy", "order side: buy or sell")
	price := flag.Int64("price", 100, "limit price")
	qty := flag.Int64("qty", 10, "quantity")
	owner := flag.String("owner", "", "owner account id (uuid, required for place)")
	orderID := flag.String("order", "", "order id (uuid, required for cancel)")
	flag.Parse()

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", *serverAddr, err)
	}
	defer conn.Close()

	var raw []byte
	switch strings.ToLower(*action) {
	case "place":
		ownerID, err := uuid.Parse(*owner)
		if err != nil {
			log.Fatalf("invalid -owner: %v", err)
		}
		side := order.Bid
		if strings.ToLower(*sideStr) == "sell" {
			side = order.Ask
		}
		msg := wire.NewOrderMessage{
			Symbol: *symbol,
			Side:   side,
			Price:  big.NewInt(*price),
			Qty:    big.NewInt(*qty),
			Owner:  ownerID,
		}
		raw, err = msg.MarshalBinary()
		if err != nil {
			log.Fatalf("failed encoding order: %v", err)
		}

	case "cancel":
		id, err := uuid.Parse(*orderID)
		if err != nil {
			log.Fatalf("invalid -order: %v", err)
		}
		msg := wire.CancelOrderMessage{Symbol: *symbol, OrderID: id}
		raw, err = msg.MarshalBinary()
		if err != nil {
			log.Fatalf("failed encoding cancel: %v", err)
		}

	case "query":
		msg := wire.QueryMessage{Symbol: *symbol}
		raw, err = msg.MarshalBinary()
		if err != nil {
			log.Fatalf("failed encoding query: %v", err)
		}

	default:
		fmt.Println("unknown action:", *action)
		os.Exit(1)
	}

	if _, err := conn.Write(raw); err != nil {
		log.Fatalf("failed sending message: %v", err)
	}

	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		log.Fatalf("failed reading report: %v", err)
	}
	fmt.Printf("received %d bytes of report\n", n)
}
