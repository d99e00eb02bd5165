package model

import "time"

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type CityCoordinate struct {
	City string `json:"city"`
	Point
	CreatedAt time.Time `json:"created_at"`
}
