//go:build ignore

package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"
)

// go run scripts/generate_sample_sales.go -out sample_sales.csv
func main() {
	out := flag.String("out", "sample_sales.csv", "output CSV path")
	days := flag.Int("days", 400, "number of days of history")
	products := flag.Int("products", 6, "number of products")
	seed := flag.Int64("seed", 42, "random seed")
	flag.Parse()

	log.Println("🚀 サンプル販売データの生成を開始します...")

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("❌ ファイル作成に失敗: %v", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"Product_Code", "Warehouse", "Product_Category", "Date", "Order_Demand", "Customer_ID"}); err != nil {
		log.Fatalf("❌ ヘッダー書き込みに失敗: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	start := time.Now().AddDate(0, 0, -*days).Truncate(24 * time.Hour)
	rows := 0
	for p := 1; p <= *products; p++ {
		code := fmt.Sprintf("Product_%04d", p)
		base := 50 + rng.Float64()*200
		trend := rng.Float64() * 0.2
		for d := 0; d < *days; d++ {
			// 日曜は休業
			date := start.AddDate(0, 0, d)
			if date.Weekday() == time.Sunday {
				continue
			}
			weekly := 1 + 0.3*math.Sin(2*math.Pi*float64(date.Weekday())/7)
			yearly := 1 + 0.2*math.Cos(2*math.Pi*float64(date.YearDay())/365.25)
			demand := (base + trend*float64(d)) * weekly * yearly * (0.8 + 0.4*rng.Float64())
			record := []string{
				code,
				fmt.Sprintf("Whse_%c", 'A'+rune(p%4)),
				fmt.Sprintf("Category_%03d", p%3+1),
				date.Format("02/01/2006"),
				fmt.Sprintf("%.0f", demand),
				fmt.Sprintf("C%03d", rng.Intn(50)),
			}
			if err := w.Write(record); err != nil {
				log.Fatalf("❌ 書き込みに失敗: %v", err)
			}
			rows++
		}
	}

	log.Printf("✅ %d 行を %s に書き込みました", rows, *out)
}
