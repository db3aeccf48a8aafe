package constants

import "time"

// device categories
const CategoryLights = "lights"
const CategoryFans = "fans"
const CategorySecurity = "security"

const MinIntensity = 0
const MaxIntensity = 255

// broadcast events
const EventStateChanged = "stateChanged"
const SSEStreamState = "state"

// transition sources
const SourceAPI = "api"
const SourceTimer = "timer"
const SourceTemperature = "temperature"
const SourceBulk = "bulk"

const DefaultHistoryLimit = 100
const DashboardRefreshInterval = 100 * time.Millisecond
