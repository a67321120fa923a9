// cmd/tools/vin-check/main.go
//
// vin-check decodes one or more VINs against the NHTSA API and prints
// the mapped warehouse records as JSON. It touches no warehouse and no
// sync state, so it is safe to run against production config.
//
// Usage:
//
//	vin-check [-base-url URL] [-timeout 30s] [-recalls=false] VIN [VIN...]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"bmw-vin-connector/internal/common/nhtsa"
	"bmw-vin-connector/internal/common/vin"
	"bmw-vin-connector/internal/mapper"
	"bmw-vin-connector/internal/models"
)

type report struct {
	VIN     string                `json:"vin"`
	Vehicle *models.VehicleRecord `json:"vehicle,omitempty"`
	Recalls []models.RecallRecord `json:"recalls,omitempty"`
	Errors  []string              `json:"errors,omitempty"`
}

func main() {
	baseURL := flag.String("base-url", nhtsa.DefaultBaseURL, "NHTSA vPIC API base URL")
	timeout := flag.Duration("timeout", 30*time.Second, "per-request timeout")
	withRecalls := flag.Bool("recalls", true, "also fetch recall campaigns")
	flag.Parse()

	vins := flag.Args()
	if len(vins) == 0 {
		fmt.Fprintln(os.Stderr, "usage: vin-check [flags] VIN [VIN...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	client := nhtsa.NewClient(*baseURL, *timeout)
	ctx := context.Background()

	failed := false
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	for _, v := range vins {
		r := checkVIN(ctx, client, v, *withRecalls)
		if len(r.Errors) > 0 {
			failed = true
		}
		if err := encoder.Encode(r); err != nil {
			fmt.Fprintf(os.Stderr, "encode failed: %v\n", err)
			os.Exit(1)
		}
	}

	if failed {
		os.Exit(1)
	}
}

func checkVIN(ctx context.Context, client *nhtsa.Client, v string, withRecalls bool) report {
	r := report{VIN: v}

	if err := vin.Validate(v); err != nil {
		r.Errors = append(r.Errors, err.Error())
		return r
	}

	info, err := client.DecodeVIN(ctx, v)
	if err != nil {
		r.Errors = append(r.Errors, err.Error())
		return r
	}

	vehicle, err := mapper.ToVehicleRecord(info)
	if err != nil {
		r.Errors = append(r.Errors, err.Error())
		return r
	}
	r.Vehicle = vehicle

	if !withRecalls {
		return r
	}

	recallInfos, err := client.RecallsByVIN(ctx, v)
	if err != nil {
		r.Errors = append(r.Errors, err.Error())
		return r
	}

	records, mapErrs := mapper.ToRecallRecords(v, recallInfos)
	r.Recalls = records
	for _, mapErr := range mapErrs {
		r.Errors = append(r.Errors, mapErr.Error())
	}

	return r
}
