// README: Simulated driver roster used when a request carries no driver.
package ride

import "math/rand/v2"

var carDrivers = []DriverInfo{
	{Name: "Ricardo Silva", Photo: "https://i.pravatar.cc/150?u=ricardo", Rating: 4.9, Vehicle: "Toyota Corolla Prata", Plate: "BRA-2E19"},
	{Name: "Maria Santos", Photo: "https://i.pravatar.cc/150?u=maria", Rating: 4.8, Vehicle: "Hyundai HB20 Branco", Plate: "KGP-4412"},
	{Name: "André Lima", Photo: "https://i.pravatar.cc/150?u=andre", Rating: 5.0, Vehicle: "Honda Civic Preto", Plate: "RTX-9J21"},
	{Name: "Carla Dias", Photo: "https://i.pravatar.cc/150?u=carla", Rating: 4.7, Vehicle: "VW Polo Azul", Plate: "NFX-3388"},
}

var motoDrivers = []DriverInfo{
	{Name: "Paulo Rocha", Photo: "https://i.pravatar.cc/150?u=paulo", Rating: 4.8, Vehicle: "Honda CG 160 Vermelha", Plate: "PRT-7A41"},
	{Name: "Juliana Melo", Photo: "https://i.pravatar.cc/150?u=juliana", Rating: 4.9, Vehicle: "Yamaha Fazer 250 Preta", Plate: "JMA-5C02"},
}

var suvDrivers = []DriverInfo{
	{Name: "Fernando Costa", Photo: "https://i.pravatar.cc/150?u=fernando", Rating: 4.9, Vehicle: "Jeep Compass Cinza", Plate: "FCS-1B77"},
	{Name: "Beatriz Nunes", Photo: "https://i.pravatar.cc/150?u=beatriz", Rating: 4.7, Vehicle: "Toyota SW4 Preta", Plate: "BTN-8D53"},
}

// Roster returns the drivers that serve a category.
func Roster(c Category) []DriverInfo {
	switch c {
	case CategoryMoto:
		return motoDrivers
	case CategorySUV:
		return suvDrivers
	}
	return carDrivers
}

func pickDriver(rng *rand.Rand, c Category) DriverInfo {
	drivers := Roster(c)
	return drivers[rng.IntN(len(drivers))]
}
