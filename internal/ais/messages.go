// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package ais

// Message types requested from the stream.
const (
	MessageTypePosition = "PositionReport"
	MessageTypeStatic   = "ShipStaticData"
)

// Subscription is the first frame sent after connecting.
type Subscription struct {
	APIKey             string         `json:"APIKey"`
	BoundingBoxes      [][][2]float64 `json:"BoundingBoxes"`
	FilterMessageTypes []string       `json:"FilterMessageTypes"`
}

// GlobalSubscription subscribes to every position and static report worldwide.
func GlobalSubscription(apiKey string) Subscription {
	return Subscription{
		APIKey:             apiKey,
		BoundingBoxes:      [][][2]float64{{{-90, -180}, {90, 180}}},
		FilterMessageTypes: []string{MessageTypePosition, MessageTypeStatic},
	}
}

// streamMessage is one frame from the stream.
type streamMessage struct {
	MessageType string       `json:"MessageType"`
	MetaData    metaData     `json:"MetaData"`
	Message     messageUnion `json:"Message"`
}

type metaData struct {
	MMSI      int64    `json:"MMSI"`
	ShipName  string   `json:"ShipName"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	TimeUTC   string   `json:"time_utc"`
}

type messageUnion struct {
	PositionReport *positionReport `json:"PositionReport"`
	ShipStaticData *shipStaticData `json:"ShipStaticData"`
}

type positionReport struct {
	Latitude           *float64 `json:"Latitude"`
	Longitude          *float64 `json:"Longitude"`
	Sog                *float64 `json:"Sog"`
	Cog                *float64 `json:"Cog"`
	TrueHeading        *int     `json:"TrueHeading"`
	NavigationalStatus *int     `json:"NavigationalStatus"`
	RateOfTurn         *float64 `json:"RateOfTurn"`
}

type shipStaticData struct {
	ImoNumber   *int64     `json:"ImoNumber"`
	Name        string     `json:"Name"`
	CallSign    string     `json:"CallSign"`
	Type        *int       `json:"Type"`
	Dimension   *dimension `json:"Dimension"`
	Destination string     `json:"Destination"`
	Eta         *eta       `json:"Eta"`
}

type dimension struct {
	A *int `json:"A"`
	B *int `json:"B"`
	C *int `json:"C"`
	D *int `json:"D"`
}

type eta struct {
	Month *int `json:"Month"`
}
